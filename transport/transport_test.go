package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGetRequest(t *testing.T, url string) *http.Request {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}

func Test_Do_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"abc"`)
		fmt.Fprint(w, "hello")
	}))
	defer server.Close()

	tr := New(Options{PoolSize: 2})
	resp, err := tr.Do(context.Background(), newGetRequest(t, server.URL), NoRetry)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `"abc"`, resp.Header.Get("ETag"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func Test_Do_PoolBoundsConcurrency(t *testing.T) {
	const poolSize = 3
	const requests = 12

	var open int32
	var maxOpen int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&open, 1)
		for {
			prev := atomic.LoadInt32(&maxOpen)
			if n <= prev || atomic.CompareAndSwapInt32(&maxOpen, prev, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&open, -1)
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	tr := New(Options{PoolSize: poolSize})

	var wg sync.WaitGroup
	errs := make(chan error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := tr.Do(context.Background(), newGetRequest(t, server.URL), Idempotent)
			if err != nil {
				errs <- err
				return
			}
			_, err = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&maxOpen), int32(poolSize),
		"simultaneously open connections must never exceed the pool size")
}

func Test_Do_CancellationReleasesSlot(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		fmt.Fprint(w, "late")
	}))
	defer server.Close()

	tr := New(Options{PoolSize: 1})

	ctx, cancel := context.WithCancel(context.Background())
	result := tr.Submit(ctx, newGetRequest(t, server.URL), NoRetry)
	time.Sleep(10 * time.Millisecond)
	cancel()

	res := <-result
	assert.ErrorIs(t, res.Err, context.Canceled)

	// The slot must be free again: an unrelated request on the size-1
	// pool has to make progress.
	close(release)
	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	resp, err := tr.Do(ctx2, newGetRequest(t, server.URL), NoRetry)
	require.NoError(t, err)
	resp.Body.Close()
}

func Test_Do_AbandonedBodyReleasesSlot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1048576")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		w.Write(bytes.Repeat([]byte("x"), 1<<20))
	}))
	defer server.Close()

	tr := New(Options{PoolSize: 1})

	resp, err := tr.Do(context.Background(), newGetRequest(t, server.URL), NoRetry)
	require.NoError(t, err)

	// Read a sliver of the megabyte body, then abandon it. Closing
	// mid-transfer must hand the slot back even though most of the body
	// was never consumed.
	buf := make([]byte, 16)
	_, err = io.ReadFull(resp.Body, buf)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp2, err := tr.Do(ctx, newGetRequest(t, server.URL), NoRetry)
	require.NoError(t, err, "slot was not released by the abandoned body")
	resp2.Body.Close()
}

func Test_Do_QueuedRequestCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()

	tr := New(Options{PoolSize: 1})

	// Occupy the single slot.
	first := tr.Submit(context.Background(), newGetRequest(t, server.URL), NoRetry)

	// The second request queues, then is abandoned while still Pending.
	ctx, cancel := context.WithCancel(context.Background())
	second := tr.Submit(ctx, newGetRequest(t, server.URL), NoRetry)
	time.Sleep(10 * time.Millisecond)
	cancel()
	res := <-second
	assert.ErrorIs(t, res.Err, context.Canceled)

	close(release)
	if r := <-first; r.Err == nil {
		r.Response.Body.Close()
	}
}

func Test_Do_TimeoutSurfacesAndReleases(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	tr := New(Options{PoolSize: 1, ReadTimeout: 50 * time.Millisecond, MaxAttempts: 1})

	_, err := tr.Do(context.Background(), newGetRequest(t, server.URL), NoRetry)
	assert.ErrorIs(t, err, ErrTimeout)

	// Slot released on failure: acquiring the full pool must succeed.
	require.True(t, tr.slots.TryAcquire(1))
	tr.slots.Release(1)
}

func Test_Do_RetriesTransient5xx(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "recovered")
	}))
	defer server.Close()

	tr := New(Options{PoolSize: 1})
	tr.backoff = NewExponentialJitterBackoff(time.Millisecond, 5*time.Millisecond)

	resp, err := tr.Do(context.Background(), newGetRequest(t, server.URL), Idempotent)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func Test_Do_NoRetryOn4xx(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	tr := New(Options{PoolSize: 1})
	resp, err := tr.Do(context.Background(), newGetRequest(t, server.URL), Idempotent)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func Test_Do_NoStatusRetryWithoutIdempotency(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	tr := New(Options{PoolSize: 1})
	body := bytes.NewReader([]byte("payload"))
	req, err := http.NewRequest(http.MethodPost, server.URL, body)
	require.NoError(t, err)

	resp, err := tr.Do(context.Background(), req, RetryPolicy{MaxAttempts: 3})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func Test_Do_CompletionOrderIndependent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			time.Sleep(60 * time.Millisecond)
		}
		fmt.Fprint(w, r.URL.Path)
	}))
	defer server.Close()

	tr := New(Options{PoolSize: 4})

	slow := tr.Submit(context.Background(), newGetRequest(t, server.URL+"/slow"), NoRetry)
	fast := tr.Submit(context.Background(), newGetRequest(t, server.URL+"/fast"), NoRetry)

	select {
	case res := <-fast:
		require.NoError(t, res.Err)
		res.Response.Body.Close()
	case <-time.After(50 * time.Millisecond):
		t.Fatal("fast request should complete before the slow one")
	}

	res := <-slow
	require.NoError(t, res.Err)
	res.Response.Body.Close()
}

func Test_StateTerminal(t *testing.T) {
	assert.False(t, Pending.Terminal())
	assert.False(t, Sending.Terminal())
	assert.False(t, AwaitingResponse.Terminal())
	assert.False(t, Streaming.Terminal())
	assert.True(t, Complete.Terminal())
	assert.True(t, Cancelled.Terminal())
	assert.True(t, Failed.Terminal())
}

func Test_BackoffDelayBounds(t *testing.T) {
	b := NewExponentialJitterBackoff(100*time.Millisecond, 2*time.Second)
	for attempt := 0; attempt < 8; attempt++ {
		d := b.BackoffDelay(attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 2*time.Second)
	}
	// First delay stays near the base even with maximum jitter.
	assert.LessOrEqual(t, b.BackoffDelay(0), 120*time.Millisecond)
}
