package utils

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	DEFAULT_READ_TIMEOUT     = 60 * time.Second
	DEFAULT_WRITE_TIMEOUT    = DEFAULT_READ_TIMEOUT
	DEFAULT_SHUTDOWN_TIMEOUT = 30 * time.Second
)

// Server wraps http.Server and drains in-flight requests on SIGTERM or SIGINT.
type Server struct {
	*http.Server

	shutdownTimeout time.Duration
	signals         chan os.Signal
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: DEFAULT_SHUTDOWN_TIMEOUT,
		signals:         make(chan os.Signal, 1),
	}
}

// Run serves until a termination signal arrives or ctx is cancelled, then
// shuts down gracefully.
func (srv *Server) Run(ctx context.Context) error {
	signal.Notify(srv.signals, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(srv.signals)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-srv.signals:
		Sugar.Infof("received %s, shutting down HTTP server", sig)
	case <-ctx.Done():
		Sugar.Info("context cancelled, shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), srv.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		Sugar.Errorf("HTTP server shutdown error: %v", err)
		return err
	}
	Sugar.Info("HTTP server shutdown success")
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// GraceServer starts an HTTP server that stops gracefully on signals.
func GraceServer(addr string, handler http.Handler) error {
	return NewServer(addr, handler, DEFAULT_READ_TIMEOUT, DEFAULT_WRITE_TIMEOUT).Run(context.Background())
}
