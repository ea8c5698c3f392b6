// Package web serves the browser chat page and its JSON API.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/doeshing/datatalk/assets"
	"github.com/doeshing/datatalk/internal/infrastructure/metrics"
	"github.com/doeshing/datatalk/internal/ports"
)

// Options configures a Server.
type Options struct {
	Listen            string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server is the HTTP front end. Each browser session gets its own controller.
type Server struct {
	opts     Options
	sessions *Sessions
	logger   ports.Logger
	page     *template.Template
	static   fs.FS
}

// NewServer parses the embedded page template.
func NewServer(opts Options, sessions *Sessions, logger ports.Logger) (*Server, error) {
	page, err := template.ParseFS(assets.Web, "web/index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	static, err := fs.Sub(assets.Web, "web/static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}
	return &Server{
		opts:     opts,
		sessions: sessions,
		logger:   logger,
		page:     page,
		static:   static,
	}, nil
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /ask", s.handleAskForm)
	mux.HandleFunc("POST /api/ask", s.handleAskAPI)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(s.static)))
	return s.logRequests(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", map[string]interface{}{"address": ln.Addr().String()})
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("web server shutting down", nil)
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errChan
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(started).String(),
		})
	})
}
