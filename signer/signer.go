// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package signer implements the Signature V4 compatible scheme used by S3
// object storage services: canonical request encoding, the keyed digest
// derivation chain, header-based request signing and presigned URLs.
//
// Signing is a pure pipeline over immutable inputs. A signature is valid
// only for the exact canonical request it was derived from; any mutation of
// headers, query parameters or the payload hash after signing invalidates
// it, so the request must not be touched once SignV4S3 returns.
package signer

import (
	"crypto/hmac"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/HuseynMashadiyev/minio-async/credentials"
)

var (
	// ErrInvalidExpiry is returned for a presign validity window that is
	// zero, negative or beyond the 7 day protocol maximum.
	ErrInvalidExpiry = errors.New("expiry must be between 1 second and 7 days")

	// ErrPresignExpired is returned by Verify for a URL whose validity
	// window has passed.
	ErrPresignExpired = errors.New("presigned URL is expired")

	// ErrSignatureMismatch is returned by Verify when the recomputed
	// signature does not match the one embedded in the URL.
	ErrSignatureMismatch = errors.New("presigned URL signature mismatch")
)

// SignV4S3 signs req in place with header-based authentication. The
// payloadHash must be a precomputed hex SHA-256 of the body or the
// UnsignedPayload sentinel; it is never recomputed here so that streaming
// bodies are not read twice.
func SignV4S3(req *http.Request, creds credentials.Value, region, payloadHash string, date time.Time) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	t := NewSigningTime(date)
	req.Header.Set(AmzDate, t.AmzDate())
	if creds.SessionToken != "" {
		req.Header.Set(AmzSecurityToken, creds.SessionToken)
	}

	u := *req.URL
	u.Host = requestHost(req)
	canonical, err := CanonicalRequest(req.Method, &u, req.Header, payloadHash)
	if err != nil {
		return err
	}

	scope := CredentialScope(t, region)
	strToSign := StringToSign(t, scope, canonical)
	signature := Signature(DeriveKey(creds.SecretKey, region, t), strToSign)

	_, signedList, err := CanonicalHeaders(u.Host, req.Header)
	if err != nil {
		return err
	}

	req.Header.Set(AuthorizationHeader, fmt.Sprintf(
		"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		SigningAlgorithm, creds.AccessKey, scope, signedList, signature,
	))
	return nil
}

// PresignV4 produces a time-limited signed URL for method on u. The expiry
// is embedded both as the signed relative X-Amz-Expires parameter and,
// implicitly, through the signed X-Amz-Date timestamp. The returned URL is
// a new value; u is not modified.
func PresignV4(method string, u *url.URL, creds credentials.Value, region string, date time.Time, expires time.Duration) (*url.URL, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if expires < MinExpiry || expires > MaxExpiry {
		return nil, ErrInvalidExpiry
	}

	t := NewSigningTime(date)
	scope := CredentialScope(t, region)

	signed := *u
	query := signed.Query()
	query.Set(AmzAlgorithm, SigningAlgorithm)
	query.Set(AmzCredential, creds.AccessKey+"/"+scope)
	query.Set(AmzDate, t.AmzDate())
	query.Set(AmzExpires, strconv.FormatInt(int64(expires/time.Second), 10))
	query.Set(AmzSignedHeaders, "host")
	if creds.SessionToken != "" {
		query.Set(AmzSecurityToken, creds.SessionToken)
	}

	rawQuery, err := EncodeQuery(query)
	if err != nil {
		return nil, err
	}
	signed.RawQuery = rawQuery

	canonical, err := CanonicalRequest(method, &signed, nil, UnsignedPayload)
	if err != nil {
		return nil, err
	}

	strToSign := StringToSign(t, scope, canonical)
	signature := Signature(DeriveKey(creds.SecretKey, region, t), strToSign)

	signed.RawQuery += "&" + AmzSignature + "=" + signature
	return &signed, nil
}

// Verify checks a presigned URL locally: the embedded window must contain
// now, and the signature must validate against the canonical request
// reconstructed from the URL's own components.
func Verify(method string, u *url.URL, creds credentials.Value, region string, now time.Time) error {
	query := u.Query()

	if query.Get(AmzAlgorithm) != SigningAlgorithm {
		return fmt.Errorf("%w: unexpected algorithm %q", ErrSignatureMismatch, query.Get(AmzAlgorithm))
	}

	signedAt, err := time.Parse(TimeFormat, query.Get(AmzDate))
	if err != nil {
		return fmt.Errorf("parse %s: %w", AmzDate, err)
	}
	seconds, err := strconv.ParseInt(query.Get(AmzExpires), 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", AmzExpires, err)
	}

	expiresAt := signedAt.Add(time.Duration(seconds) * time.Second)
	if now.Before(signedAt) || !now.Before(expiresAt) {
		return ErrPresignExpired
	}

	// Rebuild the canonical request from the URL's own components, minus
	// the signature itself.
	got := query.Get(AmzSignature)
	query.Del(AmzSignature)

	bare := *u
	rawQuery, err := EncodeQuery(query)
	if err != nil {
		return err
	}
	bare.RawQuery = rawQuery

	canonical, err := CanonicalRequest(method, &bare, nil, UnsignedPayload)
	if err != nil {
		return err
	}

	t := NewSigningTime(signedAt)
	strToSign := StringToSign(t, CredentialScope(t, region), canonical)
	want := Signature(DeriveKey(creds.SecretKey, region, t), strToSign)

	if !hmac.Equal([]byte(got), []byte(want)) {
		return ErrSignatureMismatch
	}
	return nil
}

// requestHost prefers the explicit Host field over the URL host, matching
// how the wire request is built.
func requestHost(req *http.Request) string {
	if req.Host != "" {
		return req.Host
	}
	return req.URL.Host
}
