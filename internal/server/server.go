// Package server exposes the screening engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/vegasq/screener/query"
	"github.com/vegasq/screener/reader"
	"github.com/vegasq/screener/table"
)

// Options configure a Server.
type Options struct {
	// Columns is the output column order; query.DefaultColumns when empty.
	Columns []string

	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string

	// Registry receives the service metrics; a new registry when nil.
	Registry *prometheus.Registry

	Logger *slog.Logger
}

// Server serves screening requests against one cached table.
type Server struct {
	cache       *reader.Cache
	columns     []string
	corsOrigins []string
	logger      *slog.Logger
	registry    *prometheus.Registry
	metrics     *Metrics
	router      *mux.Router

	mu     sync.Mutex
	engine *query.Engine
}

// New creates a server for the table held by cache.
func New(cache *reader.Cache, opts Options) *Server {
	s := &Server{
		cache:       cache,
		columns:     opts.Columns,
		corsOrigins: opts.CORSOrigins,
		logger:      opts.Logger,
		registry:    opts.Registry,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = NewMetrics(s.registry)
	s.router = s.routes()
	return s
}

// routes builds the router. API routes accept OPTIONS so the CORS
// middleware can answer preflight requests.
func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/screen", s.handleScreen).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/columns", s.handleColumns).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.Use(s.requestID, s.instrument, mux.CORSMethodMiddleware(r), s.cors)
	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the service metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Engine returns the engine for the cached table, loading the table on
// first use.
func (s *Server) Engine(ctx context.Context) (*query.Engine, error) {
	t, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil || s.engine.Table() != t {
		s.engine = s.newEngine(t)
	}
	return s.engine, nil
}

func (s *Server) newEngine(t *table.Table) *query.Engine {
	return query.NewEngine(t, query.WithColumns(s.columns), query.WithLogger(s.logger))
}

// Run listens on addr and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully, waiting up to shutdownTimeout for in-flight requests. The
// table is loaded in the background so the first request does not pay for
// it; a failed load is retried by the next request.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if _, err := s.Engine(gctx); err != nil {
			s.logger.Warn("table not loaded at startup", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
