package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"finhelper/internal/log"
	"finhelper/internal/middleware/ratelimit"
	"finhelper/internal/middleware/security"
	"finhelper/internal/middleware/trace"
	"finhelper/internal/services"
)

// Server is the API server. It owns the middleware whose background work
// must stop on shutdown.
type Server struct {
	http.Server
	finance *services.FinanceService
	logger  *log.Logger

	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
	started     time.Time

	shutdownOnce sync.Once
}

type Options struct {
	RateLimit      ratelimit.Config
	Headers        security.HeadersConfig
	TrustedProxies []string
}

func DefaultOptions() Options {
	return Options{
		RateLimit: ratelimit.DefaultConfig(),
		Headers:   security.DefaultHeadersConfig(),
	}
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, finance *services.FinanceService, logger *log.Logger, opts Options) *Server {
	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	s := &Server{
		finance:     finance,
		logger:      logger.WithComponent(log.ComponentHTTP),
		detector:    detector,
		rateLimiter: ratelimit.NewLimiter(opts.RateLimit),
		tracer:      trace.NewMiddleware(logger, detector.ExtractClientIP),
		started:     time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.tracer.Handler)
	r.Use(middleware.Recoverer)
	r.Use(detector.Middleware)
	r.Use(security.NewHeadersMiddleware(opts.Headers).Middleware)
	r.Use(s.rateLimiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError().Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Put("/profile", s.handleProfile)
		r.Put("/month", s.handleSelectMonth)
		r.Post("/month/step", s.handleStepMonth)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
			r.Post("/validate", s.handleValidateBudget)
			r.Post("/redistribute", s.handleRedistribute)
			r.Post("/reset", s.handleResetCategories)
			r.Patch("/{id}", s.handleUpdateCategory)
			r.Delete("/{id}", s.handleDeleteCategory)
			r.Post("/{id}/subcategories", s.handleCreateSubcategory)
			r.Patch("/{id}/subcategories/{subID}", s.handleUpdateSubcategory)
			r.Delete("/{id}/subcategories/{subID}", s.handleDeleteSubcategory)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Get("/", s.handleGetPeriod)
			r.Put("/income", s.handleUpdateIncome)
			r.Put("/categories/{id}/spent", s.handleUpdateSpent)
			r.Post("/reset", s.handleResetPeriod)

			r.Post("/expenses", s.handleCreateExpense)
			r.Patch("/expenses/{id}", s.handleUpdateExpense)
			r.Delete("/expenses/{id}", s.handleDeleteExpense)

			r.Post("/investments", s.handleCreateInvestment)
			r.Patch("/investments/{id}", s.handleUpdateInvestment)
			r.Delete("/investments/{id}", s.handleDeleteInvestment)

			r.Post("/debts", s.handleCreateDebt)
			r.Patch("/debts/{id}", s.handleUpdateDebt)
			r.Post("/debts/{id}/toggle", s.handleToggleDebt)
			r.Delete("/debts/{id}", s.handleDeleteDebt)
		})

		r.Get("/summary", s.handleSummary)
		r.Get("/history", s.handleHistory)
		r.Get("/history/compare", s.handleCompare)

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", s.handleListGoals)
			r.Post("/", s.handleCreateGoal)
			r.Patch("/{id}", s.handleUpdateGoal)
			r.Delete("/{id}", s.handleDeleteGoal)
		})

		r.Get("/export", s.handleExport)
		r.Get("/export/report", s.handleReport)
		r.Post("/import", s.handleImport)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// fail logs unexpected errors and writes the mapped response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := FromError(err)
	if resp.statusCode >= http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op, nil)
	}
	resp.Write(w)
}
