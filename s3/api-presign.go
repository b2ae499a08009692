// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/HuseynMashadiyev/minio-async/credentials"
	"github.com/HuseynMashadiyev/minio-async/signer"
)

// PresignedURL is a self-authorizing URL. Anyone holding it can perform
// the embedded operation until ExpiresAt without holding credentials.
type PresignedURL struct {
	URL       string
	ExpiresAt time.Time
}

// GetPresignedURL generates a presigned URL for an arbitrary HTTP method
// on bucket/object, valid for expires starting now. expires must be
// between one second and seven days; zero means the seven-day maximum.
// extraQuery parameters (version selectors, response header overrides)
// become part of the signed canonical query.
func (c *Client) GetPresignedURL(ctx context.Context, method, bucket, object string, expires time.Duration, extraQuery url.Values) (*PresignedURL, error) {
	if err := checkBucketName(bucket, false); err != nil {
		return nil, err
	}
	if err := checkObjectName(object); err != nil {
		return nil, err
	}
	if c.provider == nil {
		return nil, credentials.ErrMissingAccessKey
	}
	if expires == 0 {
		expires = signer.MaxExpiry
	}

	region, err := c.getRegion(ctx, bucket)
	if err != nil {
		return nil, err
	}
	creds, err := c.provider.Retrieve()
	if err != nil {
		return nil, err
	}

	u, err := c.buildURL(bucket, object, extraQuery)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	signed, err := signer.PresignV4(method, u, creds, region, now, expires)
	if err != nil {
		return nil, err
	}
	return &PresignedURL{
		URL:       signed.String(),
		ExpiresAt: now.Truncate(time.Second).Add(expires),
	}, nil
}

// PresignedGetObject generates a presigned URL to download an object.
func (c *Client) PresignedGetObject(ctx context.Context, bucket, object string, expires time.Duration) (*PresignedURL, error) {
	return c.GetPresignedURL(ctx, http.MethodGet, bucket, object, expires, nil)
}

// PresignedPutObject generates a presigned URL to upload an object.
func (c *Client) PresignedPutObject(ctx context.Context, bucket, object string, expires time.Duration) (*PresignedURL, error) {
	return c.GetPresignedURL(ctx, http.MethodPut, bucket, object, expires, nil)
}

// PresignedHeadObject generates a presigned URL to stat an object.
func (c *Client) PresignedHeadObject(ctx context.Context, bucket, object string, expires time.Duration) (*PresignedURL, error) {
	return c.GetPresignedURL(ctx, http.MethodHead, bucket, object, expires, nil)
}
