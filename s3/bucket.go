package s3

import (
	"regexp"
	"strings"
	"time"
)

// BucketInfo describes a bucket owned by the authenticated user.
type BucketInfo struct {
	Name         string    `xml:"Name"`
	CreationDate time.Time `xml:"CreationDate"`
}

// ObjectInfo is the metadata returned by stat and put operations.
type ObjectInfo struct {
	Bucket       string
	Key          string
	ETag         string
	Size         int64
	ContentType  string
	LastModified time.Time
}

var (
	validBucketName       = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\.\-_:]{1,61}[A-Za-z0-9]$`)
	validBucketNameStrict = regexp.MustCompile(`^[a-z0-9][a-z0-9\.\-]{1,61}[a-z0-9]$`)
	ipAddress             = regexp.MustCompile(`^(\d+\.){3}\d+$`)
)

// checkBucketName validates a bucket name against the object-storage naming
// rules. strict applies the creation-time subset (lowercase only, no
// underscores), which is what the service enforces for new buckets.
func checkBucketName(name string, strict bool) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidBucketName
	}
	if ipAddress.MatchString(name) {
		return ErrInvalidBucketName
	}
	if strings.Contains(name, "..") || strings.Contains(name, ".-") || strings.Contains(name, "-.") {
		return ErrInvalidBucketName
	}
	if strict {
		if !validBucketNameStrict.MatchString(name) {
			return ErrInvalidBucketName
		}
		return nil
	}
	if !validBucketName.MatchString(name) {
		return ErrInvalidBucketName
	}
	return nil
}

// checkObjectName rejects empty or unrepresentable object keys.
func checkObjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidObjectName
	}
	return nil
}
