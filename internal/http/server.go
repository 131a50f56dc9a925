// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintower/internal/cache"
	"fintower/internal/core"
	"fintower/internal/ledger"
	"fintower/internal/services"
	"fintower/internal/telegram"
)

// writeRateLimit caps mutating requests per client IP per minute.
const writeRateLimit = 60

type Server struct {
	http.Server

	store         ledger.Store
	recorder      *services.RecorderService
	budget        *services.BudgetService
	networth      *services.NetWorthService
	confirmations *services.ConfirmationService
	syncer        *telegram.Syncer // nil when no bot token is configured

	rateLimiter *rateLimiter
	metrics     *securityMetrics

	// Budget overviews are cheap but hit on every dashboard poll, so they
	// are cached per month and invalidated on writes.
	overviewCache *cache.LRUCache[core.BudgetOverview]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// syncer may be nil; the sync endpoint then reports it unavailable.
func NewServer(addr string, store ledger.Store, recorder *services.RecorderService, budget *services.BudgetService, networth *services.NetWorthService, confirmations *services.ConfirmationService, syncer *telegram.Syncer) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:         store,
		recorder:      recorder,
		budget:        budget,
		networth:      networth,
		confirmations: confirmations,
		syncer:        syncer,
		rateLimiter:   newRateLimiter(writeRateLimit, time.Minute),
		metrics:       &securityMetrics{},
		overviewCache: cache.NewLRUCache[core.BudgetOverview](24, 5*time.Minute),
		cacheManager:  cache.NewManager(),
	}

	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /webhook", s.withSecurity(s.handleWebhook))
	mux.HandleFunc("POST /bonus", s.withSecurity(s.handleBonus))

	mux.HandleFunc("GET /transactions", s.withSecurity(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", s.withSecurity(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions/{id}", s.withSecurity(s.handleGetTransaction))
	mux.HandleFunc("PUT /transactions/{id}", s.withSecurity(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.withSecurity(s.handleDeleteTransaction))

	mux.HandleFunc("GET /budget", s.withSecurity(s.handleBudget))

	mux.HandleFunc("GET /networth", s.withSecurity(s.handleNetWorth))
	mux.HandleFunc("GET /networth/history", s.withSecurity(s.handleNetWorthHistory))
	mux.HandleFunc("POST /networth/snapshot", s.withSecurity(s.handleNetWorthSnapshot))

	mux.HandleFunc("GET /confirmations", s.withSecurity(s.handleConfirmationStatus))
	mux.HandleFunc("POST /confirmations", s.withSecurity(s.handleConfirm))

	mux.HandleFunc("POST /sync/telegram", s.withSecurity(s.handleTelegramSync))

	return s
}

// Shutdown stops the HTTP server and the background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurity adds security headers, rate limiting, and request logging.
func (s *Server) withSecurity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request", "client_ip", clientIP, "url", r.URL.Path)
		}

		// Rate limit writes only; dashboard polling stays cheap.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) invalidateOverview(month core.Month) {
	s.overviewCache.Delete(month.String())
}

func (s *Server) getOverview(ctx context.Context, month core.Month) (core.BudgetOverview, error) {
	key := month.String()
	if ov, found := s.overviewCache.Get(key); found {
		slog.DebugContext(ctx, "Overview cache hit", "month", key)
		return ov, nil
	}

	ov, err := s.budget.Overview(ctx, month)
	if err != nil {
		return core.BudgetOverview{}, err
	}

	s.overviewCache.Set(key, ov)
	return ov, nil
}
