// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialJitterBackoff computes retry delays growing by a factor of 3
// per attempt, scaled by a random jitter between 0.8 and 1.2, capped so a
// deep retry chain cannot wait unreasonably long.
type ExponentialJitterBackoff struct {
	minDelay time.Duration
	maxDelay time.Duration
}

func NewExponentialJitterBackoff(minDelay, maxDelay time.Duration) *ExponentialJitterBackoff {
	return &ExponentialJitterBackoff{minDelay: minDelay, maxDelay: maxDelay}
}

func (j *ExponentialJitterBackoff) BackoffDelay(attempt int) time.Duration {
	jitter := float64(rand.Intn(120-80)+80) / 100
	delay := time.Duration(float64(j.minDelay) * math.Pow(3, float64(attempt)) * jitter)

	if delay > j.maxDelay {
		delay = j.maxDelay
	}
	return delay
}
