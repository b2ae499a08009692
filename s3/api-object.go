// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/HuseynMashadiyev/minio-async/transport"
)

// Object is a downloaded object: metadata plus the response body stream.
// The caller owns Body and must Close it to release the pooled connection.
type Object struct {
	ObjectInfo
	Body io.ReadCloser
}

// GetObjectOptions tunes a GetObject call. A zero value fetches the whole
// object.
type GetObjectOptions struct {
	// Offset and Length select a byte range. Length zero with a non-zero
	// Offset reads from Offset to the end.
	Offset int64
	Length int64

	// Headers are additional request headers, signed along with the rest
	// of the request. Range set here loses to Offset/Length.
	Headers http.Header
}

// PutObjectOptions tunes a PutObject call.
type PutObjectOptions struct {
	// ContentType of the stored object. Empty means
	// application/octet-stream.
	ContentType string

	// Headers are additional request headers, signed along with the rest
	// of the request. User metadata goes here as x-amz-meta-* keys.
	Headers http.Header
}

func (o GetObjectOptions) rangeHeader() string {
	switch {
	case o.Offset == 0 && o.Length == 0:
		return ""
	case o.Length > 0:
		return fmt.Sprintf("bytes=%d-%d", o.Offset, o.Offset+o.Length-1)
	default:
		return fmt.Sprintf("bytes=%d-", o.Offset)
	}
}

// GetObject downloads an object, optionally a byte range of it. The
// returned Object streams the body; it is not buffered in memory.
func (c *Client) GetObject(ctx context.Context, bucket, object string, opts GetObjectOptions) (*Object, error) {
	if err := checkBucketName(bucket, false); err != nil {
		return nil, err
	}
	if err := checkObjectName(object); err != nil {
		return nil, err
	}

	headers := mergeHeaders(opts.Headers)
	if r := opts.rangeHeader(); r != "" {
		headers.Set("Range", r)
	}

	resp, err := c.execute(ctx, requestOptions{
		method:  http.MethodGet,
		bucket:  bucket,
		object:  object,
		headers: headers,
		policy:  transport.Idempotent,
	})
	if err != nil {
		return nil, err
	}

	info, err := objectInfoFromResponse(bucket, object, resp)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}
	return &Object{ObjectInfo: info, Body: resp.Body}, nil
}

// PutObject uploads the reader's content as bucket/object and returns the
// stored object's info. The body is buffered so interrupted sends can be
// replayed; callers with very large payloads should use a presigned URL
// and their own streaming upload instead.
func (c *Client) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts PutObjectOptions) (ObjectInfo, error) {
	if err := checkBucketName(bucket, false); err != nil {
		return ObjectInfo{}, err
	}
	if err := checkObjectName(object); err != nil {
		return ObjectInfo{}, err
	}

	var body []byte
	var err error
	if size >= 0 {
		body = make([]byte, size)
		if _, err = io.ReadFull(reader, body); err != nil {
			return ObjectInfo{}, fmt.Errorf("read payload: %w", err)
		}
	} else if body, err = io.ReadAll(reader); err != nil {
		return ObjectInfo{}, fmt.Errorf("read payload: %w", err)
	}

	headers := mergeHeaders(opts.Headers)
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	headers.Set("Content-Type", contentType)

	resp, err := c.execute(ctx, requestOptions{
		method:  http.MethodPut,
		bucket:  bucket,
		object:  object,
		headers: headers,
		body:    body,
		policy:  transport.Idempotent,
	})
	if err != nil {
		return ObjectInfo{}, err
	}
	defer resp.Body.Close()

	return ObjectInfo{
		Bucket:      bucket,
		Key:         object,
		ETag:        trimETag(resp.Header.Get("ETag")),
		Size:        int64(len(body)),
		ContentType: contentType,
	}, nil
}

// StatObject fetches object metadata without the body.
func (c *Client) StatObject(ctx context.Context, bucket, object string) (ObjectInfo, error) {
	if err := checkBucketName(bucket, false); err != nil {
		return ObjectInfo{}, err
	}
	if err := checkObjectName(object); err != nil {
		return ObjectInfo{}, err
	}

	resp, err := c.execute(ctx, requestOptions{
		method: http.MethodHead,
		bucket: bucket,
		object: object,
		policy: transport.Idempotent,
	})
	if err != nil {
		return ObjectInfo{}, err
	}
	defer resp.Body.Close()

	return objectInfoFromResponse(bucket, object, resp)
}

// RemoveObject deletes an object. Deleting a missing object succeeds, as
// the service treats the delete as idempotent.
func (c *Client) RemoveObject(ctx context.Context, bucket, object string) error {
	if err := checkBucketName(bucket, false); err != nil {
		return err
	}
	if err := checkObjectName(object); err != nil {
		return err
	}

	resp, err := c.execute(ctx, requestOptions{
		method: http.MethodDelete,
		bucket: bucket,
		object: object,
		policy: transport.Idempotent,
	})
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// CopyObject server-side copies srcBucket/srcObject to bucket/object.
func (c *Client) CopyObject(ctx context.Context, bucket, object, srcBucket, srcObject string) (ObjectInfo, error) {
	if err := checkBucketName(bucket, false); err != nil {
		return ObjectInfo{}, err
	}
	if err := checkObjectName(object); err != nil {
		return ObjectInfo{}, err
	}
	if err := checkBucketName(srcBucket, false); err != nil {
		return ObjectInfo{}, err
	}
	if err := checkObjectName(srcObject); err != nil {
		return ObjectInfo{}, err
	}

	headers := make(http.Header)
	headers.Set("x-amz-copy-source", "/"+srcBucket+"/"+url.PathEscape(srcObject))

	resp, err := c.execute(ctx, requestOptions{
		method:  http.MethodPut,
		bucket:  bucket,
		object:  object,
		headers: headers,
		policy:  transport.Idempotent,
	})
	if err != nil {
		return ObjectInfo{}, err
	}
	defer resp.Body.Close()

	var result copyObjectResult
	if err := decodeXMLBody(resp.Body, &result); err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{
		Bucket:       bucket,
		Key:          object,
		ETag:         trimETag(result.ETag),
		LastModified: result.LastModified,
	}, nil
}

type copyObjectResult struct {
	XMLName      xml.Name  `xml:"CopyObjectResult"`
	ETag         string    `xml:"ETag"`
	LastModified time.Time `xml:"LastModified"`
}

func objectInfoFromResponse(bucket, object string, resp *transport.Response) (ObjectInfo, error) {
	info := ObjectInfo{
		Bucket:      bucket,
		Key:         object,
		ETag:        trimETag(resp.Header.Get("ETag")),
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		t, err := time.Parse(http.TimeFormat, lm)
		if err != nil {
			return ObjectInfo{}, fmt.Errorf("parse Last-Modified: %w", err)
		}
		info.LastModified = t
	}
	return info, nil
}

func trimETag(etag string) string {
	return strings.Trim(etag, `"`)
}

// mergeHeaders copies caller-supplied headers into a fresh header map so
// per-call mutation never leaks back to the caller.
func mergeHeaders(extra http.Header) http.Header {
	headers := make(http.Header, len(extra))
	for k, vals := range extra {
		for _, v := range vals {
			headers.Add(k, v)
		}
	}
	return headers
}
