package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/craftable-labs/triage/internal/store"
)

// testRouter wires the handlers without the CSRF layer so requests can be
// made directly
func testRouter(t *testing.T) (*chi.Mux, *store.Store) {
	t.Helper()

	st, err := store.NewStore(filepath.Join(t.TempDir(), "triage.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	s, err := NewServer(0, st, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	r := chi.NewRouter()
	r.Get("/api/classifications", s.handleClassifications)
	r.Get("/api/alerts", s.handleAlerts)
	r.Get("/api/stats", s.handleStats)
	r.Post("/api/alerts/{alertID}/ack", s.handleAlertAck)
	return r, st
}

func TestHandleStats(t *testing.T) {
	r, st := testRouter(t)

	for i, category := range []string{"URGENT", "FYI", "FYI"} {
		if err := st.UpsertClassification(&store.Classification{
			MessageID: "<m-" + string(rune('a'+i)) + ">",
			Sender:    "x@y.com",
			Category:  category,
			Sentiment: "neutral",
		}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Total      int            `json:"total"`
		ByCategory map[string]int `json:"by_category"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 3 || resp.ByCategory["FYI"] != 2 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandleClassifications(t *testing.T) {
	r, st := testRouter(t)

	if err := st.UpsertClassification(&store.Classification{
		MessageID:  "<m-1>",
		Sender:     "jane@acme.com",
		Subject:    "Contract question",
		Category:   "REPLY_NEEDED",
		Sentiment:  "neutral",
		ReceivedAt: time.Now(),
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/classifications?limit=10", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Classifications []classificationResponse `json:"classifications"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Classifications) != 1 || resp.Classifications[0].Category != "REPLY_NEEDED" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandleAlertAck(t *testing.T) {
	r, st := testRouter(t)

	a := &store.Alert{MessageID: "<m-1>", Sender: "cfo@bigco.com", Subject: "URGENT"}
	if err := st.AddAlert(a); err != nil {
		t.Fatalf("AddAlert: %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/alerts/1/ack", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	alerts, err := st.GetRecentAlerts(10, true)
	if err != nil {
		t.Fatalf("GetRecentAlerts: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("still %d unacknowledged alerts after ack", len(alerts))
	}
}

func TestHandleAlertAckErrors(t *testing.T) {
	r, _ := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/alerts/999/ack", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing alert: status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/alerts/abc/ack", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", rec.Code)
	}
}

func TestListLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", defaultListLimit},
		{"?limit=10", 10},
		{"?limit=0", defaultListLimit},
		{"?limit=junk", defaultListLimit},
		{"?limit=9999", maxListLimit},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/alerts"+tt.query, nil)
		if got := listLimit(req); got != tt.want {
			t.Errorf("listLimit(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    2,
		window:   time.Minute,
	}

	if !rl.Allow("k") || !rl.Allow("k") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.Allow("k") {
		t.Error("third request inside the window should be rejected")
	}
	if !rl.Allow("other") {
		t.Error("a different key should have its own budget")
	}
}
