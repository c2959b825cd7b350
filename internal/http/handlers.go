package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady verifies the state store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"storage": "ok"}
	if err := s.finance.Ping(ctx); err != nil {
		checks["storage"] = fmt.Sprintf("failed: %v", err)
		NewResponse().
			Status(http.StatusServiceUnavailable).
			Fail("not ready").
			Data(map[string]any{"status": "not_ready", "checks": checks}).
			Write(w)
		return
	}
	OK(map[string]any{"status": "ready", "checks": checks}).Write(w)
}

// handleMetrics reports middleware and cache counters in plain text.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	rl := s.rateLimiter.GetMetrics()
	tr := s.tracer.GetMetrics()
	cache := s.finance.HistoryStats()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "# finhelper metrics\n")
	fmt.Fprintf(w, "http_requests_total %d\n", tr.TotalRequests)
	fmt.Fprintf(w, "http_last_request_duration_ms %d\n", tr.LastDurationMs)
	fmt.Fprintf(w, "security_suspicious_requests_total %d\n", s.detector.SuspiciousCount())
	fmt.Fprintf(w, "ratelimit_hits_total %d\n", rl.TotalHits)
	fmt.Fprintf(w, "ratelimit_clients %d\n", rl.ClientCount)
	fmt.Fprintf(w, "history_cache_entries %d\n", cache.Size)
	fmt.Fprintf(w, "history_cache_hits_total %d\n", cache.Hits)
	fmt.Fprintf(w, "history_cache_misses_total %d\n", cache.Misses)
	fmt.Fprintf(w, "state_revision %d\n", s.finance.Revision())
	fmt.Fprintf(w, "uptime_seconds %d\n", int64(time.Since(s.started).Seconds()))
}
