// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// hmacSHA256 computes a single keyed digest step of the derivation chain.
func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// DeriveKey walks the fixed derivation chain:
//
//	kDate    = HMAC-SHA256("AWS4"+secret, date)
//	kRegion  = HMAC-SHA256(kDate, region)
//	kService = HMAC-SHA256(kRegion, "s3")
//	kSigning = HMAC-SHA256(kService, "aws4_request")
//
// Intermediate keys are scoped to this call and not retained anywhere.
func DeriveKey(secretKey, region string, t SigningTime) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), []byte(t.ScopeDate()))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(ServiceS3))
	return hmacSHA256(kService, []byte("aws4_request"))
}

// Signature computes the final hex-encoded signature over the string to
// sign with a derived key.
func Signature(signingKey []byte, strToSign string) string {
	return hex.EncodeToString(hmacSHA256(signingKey, []byte(strToSign)))
}
