// Package lifecycle runs a process's listeners side by side and stops them
// together. The first listener to fail ends the process.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"logviewer/logger"
)

type Supervisor struct {
	mu      sync.Mutex
	servers []*http.Server
	wg      sync.WaitGroup
	errs    chan error
}

func New() *Supervisor {
	return &Supervisor{errs: make(chan error, 8)}
}

// Go runs fn in its own goroutine. A returned error or a panic is reported
// to Wait.
func (s *Supervisor) Go(name string, fn func() error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Critical("Panic in supervised task", "task", name, "panic", r)
				s.report(fmt.Errorf("%s: panic: %v", name, r))
			}
		}()
		if err := fn(); err != nil {
			s.report(fmt.Errorf("%s: %w", name, err))
		}
	}()
}

// Serve starts srv and registers it for Shutdown.
func (s *Supervisor) Serve(name string, srv *http.Server) {
	s.mu.Lock()
	s.servers = append(s.servers, srv)
	s.mu.Unlock()

	s.Go(name, func() error {
		logger.Info("Listener active", "name", name, "addr", srv.Addr)
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
}

// ServeOptional starts srv like Serve, but a failure is only logged: the
// process keeps running without it.
func (s *Supervisor) ServeOptional(name string, srv *http.Server) {
	s.mu.Lock()
	s.servers = append(s.servers, srv)
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic in optional listener", "name", name, "panic", r)
			}
		}()
		logger.Info("Listener active", "name", name, "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Optional listener failed, continuing without it", "name", name, "addr", srv.Addr, "err", err)
		}
	}()
}

func (s *Supervisor) report(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

// Wait blocks until ctx is cancelled, returning nil, or until a supervised
// task fails, returning its error.
func (s *Supervisor) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-s.errs:
		return err
	}
}

// Shutdown gracefully stops every registered server within timeout.
func (s *Supervisor) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.mu.Lock()
	servers := append([]*http.Server(nil), s.servers...)
	s.mu.Unlock()

	var (
		wg   sync.WaitGroup
		emu  sync.Mutex
		errs []error
	)
	for _, srv := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(ctx); err != nil {
				emu.Lock()
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
				emu.Unlock()
			}
		}(srv)
	}
	wg.Wait()
	return errors.Join(errs...)
}
