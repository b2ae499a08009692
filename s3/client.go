// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package s3 implements a client for S3 compatible object storage: signed
// object and bucket operations plus presigned URL generation. All state
// lives in memory for the lifetime of the Client; credentials and endpoint
// configuration are immutable once the client is constructed.
package s3

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	log "github.com/sirupsen/logrus"

	"github.com/HuseynMashadiyev/minio-async/credentials"
	"github.com/HuseynMashadiyev/minio-async/signer"
	"github.com/HuseynMashadiyev/minio-async/transport"
)

const (
	libraryName    = "minio-async"
	libraryVersion = "1.0.0"

	defaultRegion  = "us-east-1"
	regionCacheCap = 1024
)

// Client talks to one S3 compatible endpoint. It is safe for concurrent
// use; the transport's connection pool bounds parallelism.
type Client struct {
	endpoint *url.URL
	region   string
	virtual  bool
	secure   bool

	provider  credentials.Provider
	transport *transport.Transport

	mu          sync.Mutex
	regionCache *lru.Cache
	userAgent   string
}

// New builds a Client from the given options. The endpoint is a bare
// host[:port]; the scheme is selected by Secure.
func New(o *Option) (*Client, error) {
	if o == nil {
		o = NewOption()
	}
	host := strings.TrimSpace(o.Endpoint)
	if host == "" || strings.Contains(host, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, o.Endpoint)
	}

	scheme := "https"
	if !o.Secure {
		scheme = "http"
	}
	endpoint, err := url.Parse(scheme + "://" + host)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}

	var provider credentials.Provider
	if o.AccessKey != "" || o.SecretKey != "" {
		provider = credentials.NewStatic(o.AccessKey, o.SecretKey, o.SessionToken)
	}

	return &Client{
		endpoint: endpoint,
		region:   o.Region,
		virtual:  o.VirtualStyle,
		secure:   o.Secure,
		provider: provider,
		transport: transport.New(transport.Options{
			PoolSize:       o.PoolSize,
			ConnectTimeout: o.ConnectTimeout,
			ReadTimeout:    o.ReadTimeout,
		}),
		regionCache: lru.New(regionCacheCap),
		userAgent: fmt.Sprintf("%s (%s; %s) %s/%s",
			libraryName, runtime.GOOS, runtime.GOARCH, libraryName, libraryVersion),
	}, nil
}

// SetAppInfo appends the embedding application to the User-Agent header.
func (c *Client) SetAppInfo(name, version string) error {
	if name == "" || version == "" {
		return fmt.Errorf("application name/version cannot be empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userAgent = fmt.Sprintf("%s (%s; %s) %s/%s %s/%s",
		libraryName, runtime.GOOS, runtime.GOARCH, libraryName, libraryVersion, name, version)
	return nil
}

// Metrics exposes the underlying transport's Prometheus collectors.
func (c *Client) Metrics() *transport.Metrics {
	return c.transport.Metrics()
}

// Close drops idle pooled connections. In-flight requests are unaffected.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

// buildURL assembles the request URL for a bucket/object pair, path style
// or virtual-host style. The query is attached unencoded; canonical
// encoding happens during signing.
func (c *Client) buildURL(bucket, object string, query url.Values) (*url.URL, error) {
	u := *c.endpoint

	if bucket != "" {
		if c.virtual {
			u.Host = bucket + "." + u.Host
			u.Path = "/"
		} else {
			u.Path = "/" + bucket
		}
		if object != "" {
			u.Path = strings.TrimSuffix(u.Path, "/") + "/" + object
		}
	} else {
		u.Path = "/"
	}

	if len(query) > 0 {
		encoded, err := signer.EncodeQuery(query)
		if err != nil {
			return nil, err
		}
		u.RawQuery = encoded
	}
	return &u, nil
}

// payloadDigest selects the payload hash per the wire security level:
// unsigned over TLS (the channel authenticates the payload), a full
// SHA-256 over plain HTTP.
func (c *Client) payloadDigest(body []byte) string {
	if c.secure {
		return signer.UnsignedPayload
	}
	if len(body) == 0 {
		return signer.EmptySHA256
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// requestOptions is the descriptor for one wire request. It is built per
// call and never mutated once signing begins.
type requestOptions struct {
	method  string
	bucket  string
	object  string
	query   url.Values
	headers http.Header
	body    []byte
	policy  transport.RetryPolicy

	// region forces a signing region, skipping bucket region resolution.
	// Bucket creation needs this: the bucket has no resolvable region yet.
	region string
}

// execute signs and runs one request, resolving the bucket region first.
// A region redirect is retried once with the refreshed region, mirroring
// how the service steers clients between locations.
func (c *Client) execute(ctx context.Context, opts requestOptions) (*transport.Response, error) {
	region := opts.region
	if region == "" {
		var err error
		region, err = c.getRegion(ctx, opts.bucket)
		if err != nil {
			return nil, err
		}
	}

	resp, err := c.urlOpen(ctx, region, opts)
	var s3err *Error
	if err == nil || !errors.As(err, &s3err) || s3err.Code != "RetryHead" {
		return resp, err
	}

	// Redirected: region cache was refreshed, try once more.
	region, err = c.getRegion(ctx, opts.bucket)
	if err != nil {
		return nil, err
	}
	return c.urlOpen(ctx, region, opts)
}

func (c *Client) urlOpen(ctx context.Context, region string, opts requestOptions) (*transport.Response, error) {
	u, err := c.buildURL(opts.bucket, opts.object, opts.query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if len(opts.body) > 0 {
		body = bytes.NewReader(opts.body)
	}
	req, err := http.NewRequest(opts.method, u.String(), body)
	if err != nil {
		return nil, err
	}

	for k, vals := range opts.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	c.mu.Lock()
	req.Header.Set("User-Agent", c.userAgent)
	c.mu.Unlock()

	digest := c.payloadDigest(opts.body)
	req.Header.Set(signer.AmzContentSHA256, digest)

	if c.provider != nil {
		creds, err := c.provider.Retrieve()
		if err != nil {
			return nil, err
		}
		if err := signer.SignV4S3(req, creds, region, digest, time.Now()); err != nil {
			return nil, err
		}
	}

	resp, err := c.transport.Do(ctx, req, opts.policy)
	if err != nil {
		log.Warnf("%s %s/%s: %v", opts.method, opts.bucket, opts.object, err)
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusPartialContent:
		return resp, nil
	}

	return nil, c.decodeError(resp, opts)
}

// decodeError turns a non-2xx response into an *Error, consuming and
// closing the body.
func (c *Client) decodeError(resp *transport.Response, opts requestOptions) error {
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var s3err *Error
	if len(data) > 0 && strings.Contains(resp.Header.Get("Content-Type"), "xml") {
		if parsed, err := errorFromXML(data); err == nil && parsed.Code != "" {
			s3err = parsed
		}
	}

	redirectRegion := resp.Header.Get("x-amz-bucket-region")
	if s3err == nil {
		code, message := statusFallback(resp.StatusCode, opts.bucket, opts.object)
		if code == "" {
			return &Error{
				Code:       "InternalError",
				Message:    fmt.Sprintf("server failed with HTTP status code %d", resp.StatusCode),
				StatusCode: resp.StatusCode,
				Operation:  opts.method,
				BucketName: opts.bucket,
				Key:        opts.object,
			}
		}
		s3err = &Error{Code: code, Message: message}
	}

	s3err.StatusCode = resp.StatusCode
	s3err.Operation = fmt.Sprintf("%s %s/%s", opts.method, opts.bucket, opts.object)
	if s3err.BucketName == "" {
		s3err.BucketName = opts.bucket
	}
	if s3err.Key == "" {
		s3err.Key = opts.object
	}
	if s3err.RequestID == "" {
		s3err.RequestID = resp.Header.Get("x-amz-request-id")
	}
	if s3err.HostID == "" {
		s3err.HostID = resp.Header.Get("x-amz-id-2")
	}

	// A redirect naming another region means our cached region is stale.
	if redirectRegion != "" && opts.bucket != "" {
		c.mu.Lock()
		c.regionCache.Remove(opts.bucket)
		c.mu.Unlock()
		if opts.method == http.MethodHead {
			s3err.Code = "RetryHead"
		} else {
			s3err.Message += "; use region " + redirectRegion
		}
	}
	if s3err.Code == "NoSuchBucket" {
		c.mu.Lock()
		c.regionCache.Remove(opts.bucket)
		c.mu.Unlock()
	}

	return s3err
}

// decodeXMLBody decodes an XML response body into v. The body is always
// drained so the pooled connection can be reused.
func decodeXMLBody(body io.Reader, v interface{}) error {
	if err := xml.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// getRegion resolves the bucket's region: the configured region wins, then
// the cache, then a GetBucketLocation call.
func (c *Client) getRegion(ctx context.Context, bucket string) (string, error) {
	if c.region != "" {
		return c.region, nil
	}
	if bucket == "" || c.provider == nil {
		return defaultRegion, nil
	}

	c.mu.Lock()
	if cached, ok := c.regionCache.Get(bucket); ok {
		c.mu.Unlock()
		return cached.(string), nil
	}
	c.mu.Unlock()

	resp, err := c.urlOpen(ctx, defaultRegion, requestOptions{
		method: http.MethodGet,
		bucket: bucket,
		query:  url.Values{"location": []string{""}},
		policy: transport.Idempotent,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var location struct {
		XMLName xml.Name `xml:"LocationConstraint"`
		Value   string   `xml:",chardata"`
	}
	if err := xml.NewDecoder(resp.Body).Decode(&location); err != nil {
		return "", fmt.Errorf("decode bucket location: %w", err)
	}

	region := location.Value
	switch region {
	case "":
		region = defaultRegion
	case "EU":
		region = "eu-west-1"
	}

	c.mu.Lock()
	c.regionCache.Add(bucket, region)
	c.mu.Unlock()
	log.Debugf("resolved region %s for bucket %s", region, bucket)
	return region, nil
}
