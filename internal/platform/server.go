package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

const defaultShutdownTimeout = 10 * time.Second

// Task runs next to the HTTP server until its context ends. A non-nil error
// stops the server.
type Task func(ctx context.Context) error

// Server owns an http.Server for the lifetime of a process.
type Server struct {
	HTTP            *http.Server
	Logger          *slog.Logger
	ShutdownTimeout time.Duration
}

// Run listens on HTTP.Addr and serves until ctx ends or something fails.
func (s Server) Run(ctx context.Context, tasks ...Task) error {
	ln, err := net.Listen("tcp", s.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.HTTP.Addr, err)
	}
	return s.Serve(ctx, ln, tasks...)
}

// Serve serves on ln and runs tasks until ctx ends, the server fails, or a
// task fails, then shuts down. Request contexts are cancelled once shutdown
// starts, so long-lived streams end instead of holding Shutdown until its
// timeout.
func (s Server) Serve(ctx context.Context, ln net.Listener, tasks ...Task) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout := s.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()
	s.HTTP.BaseContext = func(net.Listener) context.Context { return baseCtx }
	s.HTTP.RegisterOnShutdown(cancelRequests)

	taskCtx, stopTasks := context.WithCancel(ctx)
	defer stopTasks()

	errCh := make(chan error, 1+len(tasks))
	go func() {
		logger.Info("http server started", "addr", ln.Addr().String())
		if err := s.HTTP.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve: %w", err)
		}
	}()

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := task(taskCtx); err != nil {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server failed", "error", runErr)
	}

	stopTasks()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.HTTP.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("graceful shutdown: %w", err))
	}
	wg.Wait()

	logger.Info("http server stopped")
	return runErr
}
