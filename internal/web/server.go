package web

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"

	"github.com/craftable-labs/triage/internal/store"
	"github.com/craftable-labs/triage/internal/tone"
)

const (
	defaultRateLimit  = 30
	defaultRateWindow = time.Minute
	defaultListLimit  = 50
	maxListLimit      = 500
)

type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) filterRecent(times []time.Time, windowStart time.Time) []time.Time {
	n := 0
	for _, t := range times {
		if t.After(windowStart) {
			times[n] = t
			n++
		}
	}
	return times[:n]
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	recent := rl.filterRecent(rl.requests[key], now.Add(-rl.window))

	if len(recent) >= rl.limit {
		rl.requests[key] = recent
		return false
	}
	rl.requests[key] = append(recent, now)
	return true
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		windowStart := time.Now().Add(-rl.window)
		for key, times := range rl.requests {
			recent := rl.filterRecent(times, windowStart)
			if len(recent) == 0 {
				delete(rl.requests, key)
			} else {
				rl.requests[key] = recent
			}
		}
		rl.mu.Unlock()
	}
}

// Server is the local triage dashboard API. Localhost only.
type Server struct {
	store       *store.Store
	guideCache  *tone.Cache
	httpServer  *http.Server
	port        int
	csrfKey     []byte
	rateLimiter *RateLimiter
}

func NewServer(port int, recordStore *store.Store, guideCache *tone.Cache) (*Server, error) {
	csrfKey := make([]byte, 32)
	if _, err := rand.Read(csrfKey); err != nil {
		return nil, fmt.Errorf("failed to generate CSRF key: %w", err)
	}

	return &Server{
		store:       recordStore,
		guideCache:  guideCache,
		port:        port,
		csrfKey:     csrfKey,
		rateLimiter: NewRateLimiter(defaultRateLimit, defaultRateWindow),
	}, nil
}

// Start runs the server until it is shut down
func (s *Server) Start() error {
	router := s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		time.Sleep(500 * time.Millisecond)
		openBrowser(fmt.Sprintf("http://localhost:%d", s.port))
	}()

	fmt.Printf("Starting triage dashboard at http://localhost:%d\n", s.port)
	fmt.Println("Press Ctrl+C to stop")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(securityHeaders)

	// CSRF protection - secure for localhost only
	csrfMiddleware := csrf.Protect(
		s.csrfKey,
		csrf.Secure(false), // Allow HTTP for localhost
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.RequestHeader("X-CSRF-Token"),
		csrf.TrustedOrigins([]string{"localhost", "127.0.0.1", fmt.Sprintf("localhost:%d", s.port), fmt.Sprintf("127.0.0.1:%d", s.port)}),
	)
	r.Use(csrfMiddleware)

	r.Get("/", s.handleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Get("/classifications", s.handleClassifications)
		r.Get("/alerts", s.handleAlerts)
		r.Get("/stats", s.handleStats)
		r.Post("/alerts/{alertID}/ack", s.handleAlertAck)
		r.Post("/tone/invalidate", s.handleToneInvalidate)
	})

	return r
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		return
	}

	exec.Command(cmd, args...).Start()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Warning: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func listLimit(r *http.Request) int {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit
}

// Handler implementations

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "triage",
		"status":  "ok",
	})
}

type classificationResponse struct {
	MessageID   string    `json:"message_id"`
	Sender      string    `json:"sender"`
	SenderName  string    `json:"sender_name,omitempty"`
	Subject     string    `json:"subject"`
	Category    string    `json:"category"`
	Sentiment   string    `json:"sentiment"`
	DealID      string    `json:"deal_id,omitempty"`
	DealName    string    `json:"deal_name,omitempty"`
	ToneVerdict string    `json:"tone_verdict,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
	ProcessedAt time.Time `json:"processed_at"`
}

func (s *Server) handleClassifications(w http.ResponseWriter, r *http.Request) {
	classifications, err := s.store.GetRecentClassifications(listLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]classificationResponse, 0, len(classifications))
	for _, c := range classifications {
		out = append(out, classificationResponse{
			MessageID:   c.MessageID,
			Sender:      c.Sender,
			SenderName:  c.SenderName,
			Subject:     c.Subject,
			Category:    c.Category,
			Sentiment:   c.Sentiment,
			DealID:      c.DealID,
			DealName:    c.DealName,
			ToneVerdict: c.ToneVerdict,
			ReceivedAt:  c.ReceivedAt,
			ProcessedAt: c.ProcessedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"classifications": out})
}

type alertResponse struct {
	ID           int64     `json:"id"`
	MessageID    string    `json:"message_id"`
	Sender       string    `json:"sender"`
	Subject      string    `json:"subject"`
	DealID       string    `json:"deal_id,omitempty"`
	DealName     string    `json:"deal_name,omitempty"`
	Preview      string    `json:"preview"`
	Acknowledged bool      `json:"acknowledged"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	unackedOnly := r.URL.Query().Get("unacked") == "true"

	alerts, err := s.store.GetRecentAlerts(listLimit(r), unackedOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, alertResponse{
			ID:           a.ID,
			MessageID:    a.MessageID,
			Sender:       a.Sender,
			Subject:      a.Subject,
			DealID:       a.DealID,
			DealName:     a.DealName,
			Preview:      a.Preview,
			Acknowledged: a.Acknowledged,
			CreatedAt:    a.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"alerts": out})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetCategoryStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	total := 0
	for _, n := range stats {
		total += n
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":       total,
		"by_category": stats,
	})
}

func (s *Server) handleAlertAck(w http.ResponseWriter, r *http.Request) {
	if !s.rateLimiter.Allow("mutate") {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "alertID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid alert id")
		return
	}

	if err := s.store.AckAlert(id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"acknowledged": id})
}

func (s *Server) handleToneInvalidate(w http.ResponseWriter, r *http.Request) {
	if !s.rateLimiter.Allow("mutate") {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	if s.guideCache == nil {
		writeError(w, http.StatusConflict, "no tone guide configured")
		return
	}

	s.guideCache.Invalidate()
	writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}
