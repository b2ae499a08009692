// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package credentials holds the access/secret key pair used to sign
// requests against an S3 compatible service.
package credentials

import (
	"errors"
	"strings"
)

var (
	ErrMissingAccessKey = errors.New("access key is empty or malformed")
	ErrMissingSecretKey = errors.New("secret key is empty or malformed")
)

// Value is an immutable credential set. It is constructed once per client
// and shared freely between goroutines without synchronization.
type Value struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
}

// Provider supplies credentials to the signer. Retrieve is called once per
// signing operation.
type Provider interface {
	Retrieve() (Value, error)
}

// Static is a Provider backed by a fixed credential set.
type Static struct {
	value Value
}

// NewStatic builds a Static provider. The keys are validated lazily on
// Retrieve so that anonymous clients can carry an empty provider.
func NewStatic(accessKey, secretKey, sessionToken string) *Static {
	return &Static{
		value: Value{
			AccessKey:    strings.TrimSpace(accessKey),
			SecretKey:    strings.TrimSpace(secretKey),
			SessionToken: strings.TrimSpace(sessionToken),
		},
	}
}

// Retrieve implements Provider.
func (s *Static) Retrieve() (Value, error) {
	if err := s.value.Validate(); err != nil {
		return Value{}, err
	}
	return s.value, nil
}

// IsAnonymous reports whether the credential set carries no keys at all.
func (v Value) IsAnonymous() bool {
	return v.AccessKey == "" && v.SecretKey == ""
}

// Validate checks that both keys are present and printable.
func (v Value) Validate() error {
	if v.AccessKey == "" || strings.ContainsAny(v.AccessKey, "\r\n") {
		return ErrMissingAccessKey
	}
	if v.SecretKey == "" || strings.ContainsAny(v.SecretKey, "\r\n") {
		return ErrMissingSecretKey
	}
	return nil
}
