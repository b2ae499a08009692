// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/HuseynMashadiyev/minio-async/transport"
)

type listAllMyBucketsResult struct {
	XMLName xml.Name `xml:"ListAllMyBucketsResult"`
	Buckets struct {
		Bucket []BucketInfo `xml:"Bucket"`
	} `xml:"Buckets"`
}

type listBucketResult struct {
	XMLName               xml.Name `xml:"ListBucketResult"`
	IsTruncated           bool     `xml:"IsTruncated"`
	NextContinuationToken string   `xml:"NextContinuationToken"`
	Contents              []struct {
		Key          string    `xml:"Key"`
		ETag         string    `xml:"ETag"`
		Size         int64     `xml:"Size"`
		LastModified time.Time `xml:"LastModified"`
	} `xml:"Contents"`
}

type createBucketConfiguration struct {
	XMLName  xml.Name `xml:"CreateBucketConfiguration"`
	Xmlns    string   `xml:"xmlns,attr"`
	Location string   `xml:"LocationConstraint"`
}

// MakeBucket creates a new bucket, in region if given, otherwise in the
// client's configured region or us-east-1.
func (c *Client) MakeBucket(ctx context.Context, bucket, region string) error {
	if err := checkBucketName(bucket, true); err != nil {
		return err
	}
	if region == "" {
		region = c.region
	}

	var body []byte
	if region != "" && region != defaultRegion {
		var err error
		body, err = xml.Marshal(createBucketConfiguration{
			Xmlns:    "http://s3.amazonaws.com/doc/2006-03-01/",
			Location: region,
		})
		if err != nil {
			return err
		}
	}

	resp, err := c.execute(ctx, requestOptions{
		method: http.MethodPut,
		bucket: bucket,
		body:   body,
		region: region,
	})
	if err != nil {
		var s3err *Error
		if errors.As(err, &s3err) && s3err.Code == "BucketAlreadyOwnedByYou" {
			return ErrBucketExists
		}
		return err
	}
	resp.Body.Close()

	if region == "" {
		region = defaultRegion
	}
	c.mu.Lock()
	c.regionCache.Add(bucket, region)
	c.mu.Unlock()
	return nil
}

// BucketExists reports whether the bucket exists and is reachable with the
// client's credentials.
func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if err := checkBucketName(bucket, false); err != nil {
		return false, err
	}

	resp, err := c.execute(ctx, requestOptions{
		method: http.MethodHead,
		bucket: bucket,
		policy: transport.Idempotent,
	})
	if err != nil {
		var s3err *Error
		if errors.As(err, &s3err) && (s3err.Code == "NoSuchBucket" || s3err.StatusCode == http.StatusNotFound) {
			return false, nil
		}
		return false, err
	}
	resp.Body.Close()
	return true, nil
}

// RemoveBucket deletes an empty bucket.
func (c *Client) RemoveBucket(ctx context.Context, bucket string) error {
	if err := checkBucketName(bucket, false); err != nil {
		return err
	}

	resp, err := c.execute(ctx, requestOptions{
		method: http.MethodDelete,
		bucket: bucket,
	})
	if err != nil {
		return err
	}
	resp.Body.Close()

	c.mu.Lock()
	c.regionCache.Remove(bucket)
	c.mu.Unlock()
	return nil
}

// ListBuckets returns all buckets owned by the authenticated user.
func (c *Client) ListBuckets(ctx context.Context) ([]BucketInfo, error) {
	resp, err := c.execute(ctx, requestOptions{
		method: http.MethodGet,
		policy: transport.Idempotent,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result listAllMyBucketsResult
	if err := decodeXMLBody(resp.Body, &result); err != nil {
		return nil, err
	}
	return result.Buckets.Bucket, nil
}

// ListObjects lists objects in a bucket under prefix, paging through the
// V2 listing API until the listing is exhausted or ctx is cancelled.
func (c *Client) ListObjects(ctx context.Context, bucket, prefix string, maxKeys int) ([]ObjectInfo, error) {
	if err := checkBucketName(bucket, false); err != nil {
		return nil, err
	}

	var objects []ObjectInfo
	token := ""
	for {
		query := url.Values{"list-type": []string{"2"}}
		if prefix != "" {
			query.Set("prefix", prefix)
		}
		if maxKeys > 0 {
			query.Set("max-keys", strconv.Itoa(maxKeys))
		}
		if token != "" {
			query.Set("continuation-token", token)
		}

		resp, err := c.execute(ctx, requestOptions{
			method: http.MethodGet,
			bucket: bucket,
			query:  query,
			policy: transport.Idempotent,
		})
		if err != nil {
			return nil, err
		}

		var result listBucketResult
		err = decodeXMLBody(resp.Body, &result)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		for _, entry := range result.Contents {
			objects = append(objects, ObjectInfo{
				Bucket:       bucket,
				Key:          entry.Key,
				ETag:         trimETag(entry.ETag),
				Size:         entry.Size,
				LastModified: entry.LastModified,
			})
			if maxKeys > 0 && len(objects) >= maxKeys {
				return objects, nil
			}
		}

		if !result.IsTruncated || result.NextContinuationToken == "" {
			return objects, nil
		}
		token = result.NextContinuationToken
	}
}
