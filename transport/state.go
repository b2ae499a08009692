// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

// State tracks a request through its lifecycle. Complete, Failed and
// Cancelled are terminal; the connection slot and buffers are released on
// entry to any of them.
type State int32

const (
	Pending State = iota
	Sending
	AwaitingResponse
	Streaming
	Complete
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Sending:
		return "sending"
	case AwaitingResponse:
		return "awaiting-response"
	case Streaming:
		return "streaming"
	case Complete:
		return "complete"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether the state releases the request's resources.
func (s State) Terminal() bool {
	return s == Complete || s == Cancelled || s == Failed
}
