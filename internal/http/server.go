package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"salesdash/internal/core"
	applog "salesdash/internal/log"
	"salesdash/internal/middleware/ratelimit"
	"salesdash/internal/middleware/security"
	"salesdash/internal/middleware/trace"
	"salesdash/internal/services"
	"salesdash/internal/sheets"
	"salesdash/internal/trades"
)

// Reports is the report service surface used by the handlers.
type Reports interface {
	Query(ctx context.Context, q core.Query, types ...core.ProductType) (*services.Report, error)
	Projects(ctx context.Context) ([]string, error)
	RequestRefresh(ctx context.Context, project, reason string) error
}

// TradeSearcher runs real-transaction lookups.
type TradeSearcher interface {
	Search(ctx context.Context, p trades.Params) (trades.Result, error)
}

// Deps are the collaborators of the server. Pairs and Trades may be nil; the
// matching endpoints then answer 503.
type Deps struct {
	Reports Reports
	Pairs   sheets.PairRegistry
	Trades  TradeSearcher
	Logger  *applog.Logger
}

type Options struct {
	AuthUser       string
	AuthPassword   string
	CORSOrigins    []string
	RequestTimeout time.Duration
	WriteRateLimit int // requests per minute per client on POST endpoints
}

type Server struct {
	http.Server
	reports Reports
	pairs   sheets.PairRegistry
	trades  TradeSearcher
	logger  *applog.Logger
	events  *applog.StructuredLogger
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	resolver := security.NewClientIPResolver()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      opts.RequestTimeout + 10*time.Second,
			IdleTimeout:       120 * time.Second,
		},
		reports: deps.Reports,
		pairs:   deps.Pairs,
		trades:  deps.Trades,
		logger:  logger.WithComponent(applog.ComponentHTTP),
		events:  applog.NewStructuredLogger(logger),
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.WriteRateLimit}),
		tracer:  trace.NewMiddleware(resolver.ExtractClientIP, logger),
	}

	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(applog.Middleware(logger))
	r.Use(applog.RequestIDMiddleware(trace.RequestIDFromRequest))
	r.Use(s.recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins(opts.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", trace.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", trace.RequestIDHeader},
		AllowCredentials: opts.AuthPassword != "",
		MaxAge:           300,
	}))

	r.Get("/healthz", handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))
		r.Use(security.NoStoreMiddleware)
		r.Use(basicAuth(opts.AuthUser, opts.AuthPassword))

		r.Get("/projects", s.handleProjects)
		r.Get("/report", s.handleReport)
		r.Get("/report.xlsx", s.handleReportXLSX)
		r.Get("/pairs", s.handleListPairs)
		r.Get("/trades/kinds", handleTradeKinds)
		r.Get("/trades", s.handleTrades)
		r.Get("/trades.xlsx", s.handleTradesXLSX)

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware(resolver.ExtractClientIP, func(w http.ResponseWriter, _ *http.Request) {
				writeError(w, http.StatusTooManyRequests, "요청이 너무 많습니다. 잠시 후 다시 시도해 주세요.")
			}))
			r.Post("/refresh", s.handleRefresh)
			r.Post("/pairs", s.handleAppendPair)
		})
	})

	s.Handler = r
	return s
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// recoverer turns a handler panic into a 500 with the stack in the log.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				applog.FromContext(r.Context()).ErrorContext(r.Context(), "Panic recovered",
					"panic", rec, "path", r.URL.Path)
				writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics reports request counters for the status log.
func (s *Server) Metrics() (trace.Metrics, ratelimit.Metrics) {
	return s.tracer.GetMetrics(), s.limiter.GetMetrics()
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
