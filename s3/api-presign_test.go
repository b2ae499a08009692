// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package s3

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HuseynMashadiyev/minio-async/credentials"
	"github.com/HuseynMashadiyev/minio-async/signer"
)

func playClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(NewOption(
		WithEndpoint("play.min.io", true),
		WithCredentials("Q3AM3UQ867SPQQA43P2F", "zuf+tfteSlswRu7BJ86wekitnifILbZam1KYY3TG", ""),
		WithRegion("us-east-1"),
	))
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestPresignedGetObject(t *testing.T) {
	client := playClient(t)

	before := time.Now().UTC().Truncate(time.Second)
	presigned, err := client.PresignedGetObject(context.Background(), "my-bucket", "my-object", time.Hour)
	require.NoError(t, err)
	after := time.Now().UTC().Truncate(time.Second)

	assert.True(t, strings.HasPrefix(presigned.URL, "https://play.min.io/my-bucket/my-object?"), presigned.URL)

	u, err := url.Parse(presigned.URL)
	require.NoError(t, err)
	query := u.Query()
	assert.Equal(t, signer.SigningAlgorithm, query.Get(signer.AmzAlgorithm))
	assert.Equal(t, "3600", query.Get(signer.AmzExpires))
	assert.Equal(t, "host", query.Get(signer.AmzSignedHeaders))
	assert.NotEmpty(t, query.Get(signer.AmzSignature))
	assert.NotEmpty(t, query.Get(signer.AmzDate))
	assert.True(t, strings.HasPrefix(query.Get(signer.AmzCredential), "Q3AM3UQ867SPQQA43P2F/"))
	assert.Contains(t, query.Get(signer.AmzCredential), "/us-east-1/s3/aws4_request")

	// Expiry is exactly one hour past the embedded signing time.
	assert.False(t, presigned.ExpiresAt.Before(before.Add(time.Hour)))
	assert.False(t, presigned.ExpiresAt.After(after.Add(time.Hour)))

	// The URL verifies against the same credentials within its window.
	creds, err := credentials.NewStatic(
		"Q3AM3UQ867SPQQA43P2F", "zuf+tfteSlswRu7BJ86wekitnifILbZam1KYY3TG", "").Retrieve()
	require.NoError(t, err)
	assert.NoError(t, signer.Verify(http.MethodGet, u, creds, "us-east-1", time.Now()))
}

func TestPresignedPutObject(t *testing.T) {
	client := playClient(t)

	presigned, err := client.PresignedPutObject(context.Background(), "my-bucket", "my-object", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(presigned.URL)
	require.NoError(t, err)
	assert.Equal(t, "900", u.Query().Get(signer.AmzExpires))

	creds, _ := credentials.NewStatic(
		"Q3AM3UQ867SPQQA43P2F", "zuf+tfteSlswRu7BJ86wekitnifILbZam1KYY3TG", "").Retrieve()
	// Method is part of the signature: verifying as GET must fail.
	assert.NoError(t, signer.Verify(http.MethodPut, u, creds, "us-east-1", time.Now()))
	assert.Error(t, signer.Verify(http.MethodGet, u, creds, "us-east-1", time.Now()))
}

func TestPresignExpiryBounds(t *testing.T) {
	client := playClient(t)

	tests := []struct {
		name    string
		expires time.Duration
		wantErr bool
	}{
		{"below minimum", 500 * time.Millisecond, true},
		{"negative", -time.Hour, true},
		{"minimum", time.Second, false},
		{"maximum", 7 * 24 * time.Hour, false},
		{"above maximum", 7*24*time.Hour + time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.PresignedGetObject(context.Background(), "my-bucket", "my-object", tt.expires)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidExpiry)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPresignDefaultExpiry(t *testing.T) {
	client := playClient(t)

	// A zero duration means the seven-day maximum, not an error.
	presigned, err := client.GetPresignedURL(context.Background(), http.MethodGet, "my-bucket", "my-object", 0, nil)
	require.NoError(t, err)

	u, err := url.Parse(presigned.URL)
	require.NoError(t, err)
	assert.Equal(t, "604800", u.Query().Get(signer.AmzExpires))
}

func TestPresignExtraQueryParams(t *testing.T) {
	client := playClient(t)

	extra := url.Values{}
	extra.Set("versionId", "v2.1")
	extra.Set("response-content-type", "application/json")

	presigned, err := client.GetPresignedURL(
		context.Background(), http.MethodGet, "my-bucket", "my-object", time.Hour, extra)
	require.NoError(t, err)

	u, err := url.Parse(presigned.URL)
	require.NoError(t, err)
	query := u.Query()
	assert.Equal(t, "v2.1", query.Get("versionId"))
	assert.Equal(t, "application/json", query.Get("response-content-type"))
	assert.NotEmpty(t, query.Get(signer.AmzSignature))

	creds, err := credentials.NewStatic(
		"Q3AM3UQ867SPQQA43P2F", "zuf+tfteSlswRu7BJ86wekitnifILbZam1KYY3TG", "").Retrieve()
	require.NoError(t, err)
	assert.NoError(t, signer.Verify(http.MethodGet, u, creds, "us-east-1", time.Now()))

	// The extra parameters are covered by the signature, so changing one
	// invalidates the URL.
	tampered := *u
	tq := tampered.Query()
	tq.Set("versionId", "v1.0")
	tampered.RawQuery = tq.Encode()
	assert.ErrorIs(t, signer.Verify(http.MethodGet, &tampered, creds, "us-east-1", time.Now()),
		signer.ErrSignatureMismatch)
}

func TestPresignValidation(t *testing.T) {
	client := playClient(t)
	ctx := context.Background()

	_, err := client.PresignedGetObject(ctx, "", "my-object", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidBucketName)

	_, err = client.PresignedGetObject(ctx, "my-bucket", "", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidObjectName)

	anonymous, err := New(NewOption(WithEndpoint("play.min.io", true)))
	require.NoError(t, err)
	defer anonymous.Close()
	_, err = anonymous.PresignedGetObject(ctx, "my-bucket", "my-object", time.Hour)
	assert.ErrorIs(t, err, credentials.ErrMissingAccessKey)
}

func TestPresignVirtualStyle(t *testing.T) {
	client, err := New(NewOption(
		WithEndpoint("play.min.io", true),
		WithCredentials("Q3AM3UQ867SPQQA43P2F", "zuf+tfteSlswRu7BJ86wekitnifILbZam1KYY3TG", ""),
		WithRegion("us-east-1"),
		WithVirtualStyle(),
	))
	require.NoError(t, err)
	defer client.Close()

	presigned, err := client.PresignedGetObject(context.Background(), "my-bucket", "my-object", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(presigned.URL, "https://my-bucket.play.min.io/my-object?"), presigned.URL)
}
