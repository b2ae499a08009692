// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

// retryableStatus is the whitelisted subset of responses worth retrying:
// transient server failures and throttling. Other 4xx/5xx are surfaced
// immediately.
var retryableStatus = map[int]struct{}{
	429: {},
	500: {},
	502: {},
	503: {},
	504: {},
}

// RetryPolicy is supplied by the caller per request. Only the caller knows
// whether repeating the operation is safe, so server-status retries are
// gated on Idempotent.
type RetryPolicy struct {
	// MaxAttempts bounds the total number of tries, first one included.
	// Zero means the transport default.
	MaxAttempts int

	// Idempotent allows retrying whitelisted 5xx responses. Network-level
	// failures before any byte of the request is committed are retried
	// regardless.
	Idempotent bool
}

// NoRetry issues exactly one attempt.
var NoRetry = RetryPolicy{MaxAttempts: 1}

// Idempotent is the policy for operations that are safe to repeat, such as
// GET, HEAD and DELETE.
var Idempotent = RetryPolicy{Idempotent: true}

func (p RetryPolicy) retryStatus(status int) bool {
	if !p.Idempotent {
		return false
	}
	_, ok := retryableStatus[status]
	return ok
}
