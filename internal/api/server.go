// Package api serves the dedupe engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/dedupe/internal/dedupe"
	"github.com/sells-group/dedupe/internal/model"
	"github.com/sells-group/dedupe/internal/monitoring"
)

// Engine is the subset of *dedupe.Engine the API serves.
type Engine interface {
	CheckDuplicate(ctx context.Context, rec model.Record, scope string) (dedupe.CheckResult, error)
	ScanCollection(ctx context.Context, scope string, opts dedupe.ScanOptions) (dedupe.ScanReport, error)
	Merge(ctx context.Context, keepID string, mergeIDs []string) (dedupe.MergeResult, error)
	Config() dedupe.Config
	UpdateConfig(partial map[string]any) (dedupe.Config, []string, error)
}

// StatsCollector produces record collection snapshots.
type StatsCollector interface {
	Collect(ctx context.Context, scope string) (*monitoring.Snapshot, error)
}

// Options configures a Server.
type Options struct {
	Scope          string             // default scope when a request names none
	Scan           dedupe.ScanOptions // default scan tuning
	CORSOrigins    []string
	RateLimitRPS   float64 // 0 disables limiting of scan and merge
	RateLimitBurst int
}

// Server routes HTTP requests to the engine.
type Server struct {
	engine  Engine
	stats   StatsCollector
	opts    Options
	limiter *rate.Limiter
}

// NewServer creates a Server. stats may be nil, in which case /v1/stats
// is not routed.
func NewServer(eng Engine, stats StatsCollector, opts Options) *Server {
	s := &Server{engine: eng, stats: stats, opts: opts}
	if opts.RateLimitRPS > 0 {
		burst := opts.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/check", s.handleCheck)
		r.Get("/config", s.handleGetConfig)
		r.Patch("/config", s.handlePatchConfig)
		if s.stats != nil {
			r.Get("/stats", s.handleStats)
		}

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Post("/scan", s.handleScan)
			r.Post("/merge", s.handleMerge)
		})
	})

	return r
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
