package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/five82/stylefix/internal/bridge"
	"github.com/five82/stylefix/internal/fixes"
	"github.com/five82/stylefix/internal/metrics"
	"github.com/five82/stylefix/internal/preview"
)

const (
	// DefaultAddr is the loopback address the bridge listens on.
	DefaultAddr     = "127.0.0.1:8787"
	shutdownTimeout = 5 * time.Second
)

// Sheet is the read side of the applier served over HTTP.
type Sheet interface {
	Text() string
	Preview(fix *fixes.Fix) (preview.Result, error)
}

// Options configure a Server. Handle and Sheet are required.
type Options struct {
	Addr    string
	Handle  *bridge.Handle
	Sheet   Sheet
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	// Context parents poll loops started through POST /bridge/start.
	// Defaults to context.Background.
	Context context.Context
}

// Server exposes the bridge over HTTP.
type Server struct {
	addr    string
	handle  *bridge.Handle
	sheet   Sheet
	metrics *metrics.Metrics
	log     *slog.Logger
	baseCtx context.Context
	router  chi.Router

	loaderOnce sync.Once
	loader     []byte
}

// New builds the router.
func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	s := &Server{
		addr:    opts.Addr,
		handle:  opts.Handle,
		sheet:   opts.Sheet,
		metrics: opts.Metrics,
		log:     opts.Logger,
		baseCtx: opts.Context,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Addr returns the listen address.
func (s *Server) Addr() string { return s.addr }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/fixes.css", s.handleCSS)
	r.Get("/fix-injector.js", s.handleLoader)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/bridge", func(r chi.Router) {
		r.Use(allowCrossOrigin)
		r.Post("/start", s.handleStart)
		r.Post("/stop", s.handleStop)
		r.Get("/status", s.handleStatus)
		r.Post("/preview", s.handlePreview)

		r.Route("/fixes", func(r chi.Router) {
			r.Get("/", s.handleListFixes)
			r.Post("/", s.handleApplyFix)
			r.Delete("/", s.handleClearFixes)
			r.Delete("/{id}", s.handleRollbackFix)
		})
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server: listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen %s: %w", s.addr, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("server: stopped")
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("server: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// allowCrossOrigin lets the loader script call the bridge from the host
// page's origin.
func allowCrossOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
