package lifecycle

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestWaitReturnsTaskError(t *testing.T) {
	s := New()
	s.Go("worker", func() error { return errors.New("boom") })

	err := s.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker: boom")
}

func TestWaitRecoversPanic(t *testing.T) {
	s := New()
	s.Go("worker", func() error { panic("bad state") })

	err := s.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: bad state")
}

func TestWaitReturnsNilOnCancel(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Wait(ctx))
}

func TestServeAndShutdown(t *testing.T) {
	addr := freeAddr(t)
	srv := &http.Server{Addr: addr, Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("up"))
	})}

	s := New()
	s.Serve("main", srv)

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, s.Shutdown(time.Second))

	// A closed server is not a failure.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NoError(t, s.Wait(ctx))
}

func TestServeReportsBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	s := New()
	s.Serve("main", &http.Server{Addr: ln.Addr().String(), Handler: http.NotFoundHandler()})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err = s.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "main:")
}

func TestServeOptionalBindFailureKeepsRunning(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	s := New()
	s.ServeOptional("metrics", &http.Server{Addr: busy.Addr().String(), Handler: http.NotFoundHandler()})

	addr := freeAddr(t)
	s.Serve("gateway", &http.Server{Addr: addr, Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("up"))
	})})

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	assert.NoError(t, s.Wait(ctx))
	assert.NoError(t, s.Shutdown(time.Second))
}
