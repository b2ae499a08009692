package s3

import (
	"encoding/xml"
	"fmt"
	"net/http"

	"github.com/HuseynMashadiyev/minio-async/signer"
)

var (
	ErrInvalidBucketName = fmt.Errorf("invalid bucket name")
	ErrInvalidObjectName = fmt.Errorf("invalid object name")
	ErrInvalidEndpoint   = fmt.Errorf("invalid endpoint")
	ErrBucketExists      = fmt.Errorf("bucket already exists")

	// ErrInvalidExpiry mirrors the presign bound check in the signer so
	// callers don't need to import both packages.
	ErrInvalidExpiry = signer.ErrInvalidExpiry
)

// Error is a decoded provider error response. It carries the HTTP status,
// the provider's code/message and the operation that triggered it.
type Error struct {
	XMLName    xml.Name `xml:"Error" json:"-"`
	Code       string   `xml:"Code"`
	Message    string   `xml:"Message"`
	Resource   string   `xml:"Resource"`
	RequestID  string   `xml:"RequestId"`
	HostID     string   `xml:"HostId"`
	BucketName string   `xml:"BucketName"`
	Key        string   `xml:"Key"`

	StatusCode int    `xml:"-"`
	Operation  string `xml:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (code=%s, status=%d, request-id=%s)",
		e.Operation, e.Message, e.Code, e.StatusCode, e.RequestID)
}

// errorFromXML decodes the provider's XML error envelope.
func errorFromXML(body []byte) (*Error, error) {
	var e Error
	if err := xml.Unmarshal(body, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// statusFallback maps a response status onto a provider-style error code
// when the body carried no XML envelope.
func statusFallback(status int, bucket, object string) (code, message string) {
	switch status {
	case http.StatusMovedPermanently:
		return "PermanentRedirect", "Moved Permanently"
	case http.StatusTemporaryRedirect:
		return "Redirect", "Temporary redirect"
	case http.StatusBadRequest:
		return "BadRequest", "Bad request"
	case http.StatusForbidden:
		return "AccessDenied", "Access denied"
	case http.StatusNotFound:
		switch {
		case object != "":
			return "NoSuchKey", "Object does not exist"
		case bucket != "":
			return "NoSuchBucket", "Bucket does not exist"
		default:
			return "ResourceNotFound", "Request resource not found"
		}
	case http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return "MethodNotAllowed", "The specified method is not allowed against this resource"
	case http.StatusConflict:
		if bucket != "" {
			return "NoSuchBucket", "Bucket does not exist"
		}
		return "ResourceConflict", "Request resource conflicts"
	}
	return "", ""
}
