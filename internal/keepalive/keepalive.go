// Package keepalive exposes the tiny HTTP surface hosting platforms probe
// to keep the process alive. It serves nothing else.
package keepalive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/m3rciful/gatebot/core/logger"
)

// Server is the probe endpoint. A zero port disables it entirely.
type Server struct {
	srv *http.Server
}

// New builds the server for the given port, or nil when port is 0.
func New(port int) *Server {
	if port <= 0 {
		return nil
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "OK")
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "ok")
	})
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves in the background until ctx is cancelled. A nil server is a
// no-op, so callers don't need to branch on configuration.
func (s *Server) Start(ctx context.Context) {
	if s == nil {
		return
	}
	go func() {
		logger.Info(ctx, "app", "keepalive.listening", slog.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "app", "keepalive.failed", slog.String("err", err.Error()))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()
}
