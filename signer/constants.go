// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package signer

import "time"

const (
	// SigningAlgorithm is the Signature V4 algorithm identifier.
	SigningAlgorithm = "AWS4-HMAC-SHA256"

	// ServiceS3 is the service name used in the credential scope.
	ServiceS3 = "s3"

	// UnsignedPayload is the sentinel used in place of a content digest
	// when the body is not covered by the signature.
	UnsignedPayload = "UNSIGNED-PAYLOAD"

	// EmptySHA256 is the hex encoded SHA-256 of an empty body.
	EmptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	// AuthorizationHeader carries the header-based signature.
	AuthorizationHeader = "Authorization"

	// Query/header keys used by the signature scheme.
	AmzAlgorithm     = "X-Amz-Algorithm"
	AmzCredential    = "X-Amz-Credential"
	AmzDate          = "X-Amz-Date"
	AmzExpires       = "X-Amz-Expires"
	AmzSignedHeaders = "X-Amz-SignedHeaders"
	AmzSignature     = "X-Amz-Signature"
	AmzSecurityToken = "X-Amz-Security-Token"
	AmzContentSHA256 = "X-Amz-Content-Sha256"

	// TimeFormat is the X-Amz-Date timestamp layout (YYYYMMDDTHHMMSSZ).
	TimeFormat = "20060102T150405Z"

	// ShortTimeFormat is the credential scope date layout (YYYYMMDD).
	ShortTimeFormat = "20060102"
)

const (
	// MaxExpiry is the longest validity window the protocol allows for a
	// presigned URL.
	MaxExpiry = 7 * 24 * time.Hour

	// MinExpiry is the shortest useful validity window.
	MinExpiry = time.Second
)
