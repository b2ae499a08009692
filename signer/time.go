// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package signer

import "time"

// SigningTime wraps the request timestamp with cached format strings so the
// same value is not formatted repeatedly during one signing pass.
type SigningTime struct {
	time.Time
	amzDate   string
	scopeDate string
}

// NewSigningTime normalizes t to UTC, which is what the scheme signs over.
func NewSigningTime(t time.Time) SigningTime {
	return SigningTime{Time: t.UTC()}
}

// AmzDate returns the timestamp formatted for X-Amz-Date.
func (st *SigningTime) AmzDate() string {
	if st.amzDate == "" {
		st.amzDate = st.Format(TimeFormat)
	}
	return st.amzDate
}

// ScopeDate returns the shortened date used in the credential scope.
func (st *SigningTime) ScopeDate() string {
	if st.scopeDate == "" {
		st.scopeDate = st.Format(ShortTimeFormat)
	}
	return st.scopeDate
}
