// Package trace logs the start and end of every request and hands a
// request-scoped logger to handlers.
package trace

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"finhelper/internal/log"
)

type Middleware struct {
	logger    *log.Logger
	extractIP func(*http.Request) string

	totalRequests int64
	lastDuration  int64
}

type Metrics struct {
	TotalRequests  int64
	LastDurationMs int64
}

func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	return &Middleware{logger: logger.WithComponent(log.ComponentHTTP), extractIP: extractIP}
}

// Handler expects chi's RequestID middleware to run first.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		reqLogger := m.logger
		if id := middleware.GetReqID(r.Context()); id != "" {
			reqLogger = reqLogger.With(log.FieldRequestID, id)
		}
		ctx := log.WithContext(r.Context(), reqLogger)
		r = r.WithContext(ctx)

		sl := log.NewStructuredLogger(reqLogger)
		sl.LogHTTPStart(ctx, r, clientIP)
		atomic.AddInt64(&m.totalRequests, 1)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		durationMs := time.Since(start).Milliseconds()
		atomic.StoreInt64(&m.lastDuration, durationMs)
		sl.LogHTTPEnd(ctx, r, status, durationMs, clientIP)
	})
}

func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:  atomic.LoadInt64(&m.totalRequests),
		LastDurationMs: atomic.LoadInt64(&m.lastDuration),
	}
}
