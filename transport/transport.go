// Copyright 2026 the minio-async Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transport executes signed requests without blocking the caller
// beyond its own goroutine. Concurrency is bounded by a connection pool;
// requests past the limit queue FIFO for a slot. Transient network failures
// are retried with jittered exponential backoff, server responses only per
// the caller's idempotency policy.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrTimeout is wrapped around connect or read deadline failures. The
	// connection slot is guaranteed released when it surfaces.
	ErrTimeout = errors.New("request timed out")

	// ErrTransport is wrapped around network-level failures that survived
	// the retry budget.
	ErrTransport = errors.New("transport failure")
)

const (
	DefaultPoolSize       = 16
	DefaultConnectTimeout = 30 * time.Second
	DefaultReadTimeout    = 60 * time.Second
	DefaultMaxAttempts    = 3

	defaultBackoffMin = 200 * time.Millisecond
	defaultBackoffMax = 30 * time.Second
)

// Options configures a Transport. Zero values select the defaults above.
type Options struct {
	PoolSize       int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxAttempts    int
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.PoolSize < 1 {
		out.PoolSize = DefaultPoolSize
	}
	if out.ConnectTimeout <= 0 {
		out.ConnectTimeout = DefaultConnectTimeout
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = DefaultReadTimeout
	}
	if out.MaxAttempts < 1 {
		out.MaxAttempts = DefaultMaxAttempts
	}
	return out
}

// Transport owns the HTTP connection pool. It is safe for concurrent use;
// the pool slots are the only shared mutable resource and the semaphore
// serializes access to them.
type Transport struct {
	opts    Options
	client  *http.Client
	slots   *semaphore.Weighted
	backoff *ExponentialJitterBackoff
	metrics *Metrics
}

// Response is the handle returned for an executed request. Body must be
// closed to release the connection slot back to the pool.
type Response struct {
	StatusCode    int
	Header        http.Header
	ContentLength int64
	Body          io.ReadCloser
}

// Result carries the outcome of an asynchronously submitted request.
type Result struct {
	Response *Response
	Err      error
}

func New(opts Options) *Transport {
	opts = opts.withDefaults()

	dialer := &net.Dialer{Timeout: opts.ConnectTimeout}
	inner := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.ReadTimeout,
		MaxConnsPerHost:       opts.PoolSize,
		MaxIdleConnsPerHost:   opts.PoolSize,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Transport{
		opts:    opts,
		client:  &http.Client{Transport: inner},
		slots:   semaphore.NewWeighted(int64(opts.PoolSize)),
		backoff: NewExponentialJitterBackoff(defaultBackoffMin, defaultBackoffMax),
		metrics: newMetrics(),
	}
}

// Metrics exposes the transport's Prometheus collectors.
func (t *Transport) Metrics() *Metrics { return t.metrics }

// CloseIdleConnections drops pooled connections that are not in use.
func (t *Transport) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}

// Do executes req and returns once response headers arrive. The request
// body (if any) must carry GetBody for retries to be possible; otherwise a
// failed attempt surfaces immediately.
//
// Per-request lifecycle: Pending while queued for a slot, Sending while the
// request is written, AwaitingResponse until headers arrive, Streaming
// while the caller drains Body, then Complete. Cancelled and Failed are
// reachable from every non-terminal state and release the slot on entry.
func (t *Transport) Do(ctx context.Context, req *http.Request, policy RetryPolicy) (*Response, error) {
	tk := &ticket{method: req.Method, start: time.Now(), transport: t}

	if err := t.slots.Acquire(ctx, 1); err != nil {
		tk.finish(Cancelled)
		return nil, err
	}
	t.metrics.inflight.Inc()
	t.metrics.poolWait.Observe(time.Since(tk.start).Seconds())
	tk.holding = true

	resp, err := t.attempt(ctx, req, policy, tk)
	if err != nil {
		return nil, err
	}

	tk.setState(Streaming)
	return &Response{
		StatusCode:    resp.StatusCode,
		Header:        resp.Header,
		ContentLength: resp.ContentLength,
		Body:          &trackedBody{inner: resp.Body, ticket: tk},
	}, nil
}

// Submit executes req on its own goroutine and delivers the outcome on the
// returned channel. Abandoning the request is done by cancelling ctx; the
// channel is buffered so the worker never leaks.
func (t *Transport) Submit(ctx context.Context, req *http.Request, policy RetryPolicy) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		resp, err := t.Do(ctx, req, policy)
		ch <- Result{Response: resp, Err: err}
	}()
	return ch
}

func (t *Transport) attempt(ctx context.Context, req *http.Request, policy RetryPolicy, tk *ticket) (*http.Response, error) {
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = t.opts.MaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			t.metrics.retries.Inc()
			if err := t.rewind(req); err != nil {
				break
			}
			if err := sleep(ctx, t.backoff.BackoffDelay(attempt-1)); err != nil {
				tk.finish(Cancelled)
				return nil, err
			}
			log.Debugf("retrying %s %s, attempt %d/%d", req.Method, req.URL.Path, attempt+1, maxAttempts)
		}

		tk.setState(Sending)
		resp, err := t.client.Do(req.WithContext(ctx))
		tk.setState(AwaitingResponse)

		if err != nil {
			if ctx.Err() != nil {
				tk.finish(Cancelled)
				return nil, ctx.Err()
			}
			lastErr = classify(err)
			if !replayable(req) {
				break
			}
			continue
		}

		if policy.retryStatus(resp.StatusCode) && attempt < maxAttempts-1 && replayable(req) {
			lastErr = fmt.Errorf("%w: server returned %d", ErrTransport, resp.StatusCode)
			drain(resp.Body)
			continue
		}

		return resp, nil
	}

	tk.finish(Failed)
	return nil, lastErr
}

// rewind resets the request body for a retry attempt.
func (t *Transport) rewind(req *http.Request) error {
	if req.Body == nil || req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return err
	}
	req.Body = body
	return nil
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.GetBody != nil
}

// classify maps a client error onto the transport error taxonomy.
func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// drain consumes a bounded amount of an abandoned body so the underlying
// connection can be reused, then closes it.
func drain(body io.ReadCloser) {
	_, _ = io.CopyN(io.Discard, body, 4<<10)
	_ = body.Close()
}

// ticket tracks one request through the state machine and guarantees the
// pool slot is released exactly once, on entry to a terminal state.
type ticket struct {
	transport *Transport
	method    string
	start     time.Time
	state     atomic.Int32
	holding   bool
	release   sync.Once
}

func (tk *ticket) setState(s State) {
	tk.state.Store(int32(s))
}

func (tk *ticket) finish(s State) {
	if !State(tk.state.Load()).Terminal() {
		tk.setState(s)
	}
	tk.release.Do(func() {
		if tk.holding {
			tk.transport.slots.Release(1)
			tk.transport.metrics.inflight.Dec()
		}
		tk.transport.metrics.observe(tk.method, s, time.Since(tk.start))
	})
}

// trackedBody releases the connection slot when the caller finishes with
// the response, whether it was fully read or abandoned mid-transfer.
type trackedBody struct {
	inner  io.ReadCloser
	ticket *ticket
}

func (b *trackedBody) Read(p []byte) (int, error) {
	n, err := b.inner.Read(p)
	if err != nil && err != io.EOF {
		// Mid-transfer failure; the connection is torn down by the
		// http layer, release our slot now.
		b.ticket.finish(Failed)
	}
	return n, err
}

func (b *trackedBody) Close() error {
	err := b.inner.Close()
	b.ticket.finish(Complete)
	return err
}
