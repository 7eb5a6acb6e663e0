package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/raghav/banknifty_flip/internal/infrastructure/broker"
	"github.com/raghav/banknifty_flip/internal/usecase"
	"go.uber.org/zap"
)

// 2025-08-18 11:00 IST, inside the trading session.
func sessionTime() time.Time {
	ist, _ := time.LoadLocation("Asia/Kolkata")
	return time.Date(2025, time.August, 18, 11, 0, 0, 0, ist)
}

func newRehearsalServer(t *testing.T) (*Server, *usecase.SimPositionStore) {
	t.Helper()
	log := zap.NewNop()

	sim := broker.NewSimBroker(44650.50, log)
	store := usecase.NewSimPositionStore()
	engine := usecase.NewFlipEngine(
		usecase.NewMarketClock(),
		usecase.NewSymbolResolver("BANKNIFTY", 100),
		store,
		sim,
		usecase.NewRetryer(3, usecase.ConstantBackoff(0), log),
		nil,
		usecase.FlipEngineConfig{
			SpotInstrument: "NSE:NIFTY BANK",
			Rehearsal:      true,
			Cooldown:       2 * time.Second,
			LegPause:       0,
			Now:            sessionTime,
		},
		log,
	)

	return NewServer(0, engine, store, store, nil, 105, "rehearsal", log), store
}

func postWebhook(t *testing.T, s *Server, body string) map[string]interface{} {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("webhook must always answer 200, got %d", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	return resp
}

func TestWebhook_MalformedJSON(t *testing.T) {
	s, _ := newRehearsalServer(t)

	resp := postWebhook(t, s, "{not json")
	if resp["status"] != "error" || resp["reason"] != "invalid JSON" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp["raw"] != "{not json" {
		t.Errorf("response must echo the raw body, got %+v", resp["raw"])
	}
}

func TestWebhook_InvalidSide(t *testing.T) {
	s, _ := newRehearsalServer(t)

	resp := postWebhook(t, s, `{"type":"XX","qty":35}`)
	if resp["status"] != "error" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestWebhook_EndToEndScenario(t *testing.T) {
	s, _ := newRehearsalServer(t)

	// Flat + CE signal: entry.
	resp := postWebhook(t, s, `{"type":"CE","qty":35}`)
	if resp["status"] != "test" {
		t.Fatalf("expected test status in rehearsal mode, got %+v", resp)
	}
	if resp["entered"] != "BANKNIFTY25AUG44600CE" {
		t.Errorf("unexpected entry: %+v", resp)
	}

	// Identical signal: duplicate skip.
	resp = postWebhook(t, s, `{"type":"CE","qty":35}`)
	if resp["status"] != "skipped" {
		t.Fatalf("expected duplicate skip, got %+v", resp)
	}

	// Opposite signal: flip.
	resp = postWebhook(t, s, `{"type":"PE","qty":35}`)
	if resp["status"] != "test" {
		t.Fatalf("expected flip, got %+v", resp)
	}
	if resp["exited"] != "BANKNIFTY25AUG44600CE" || resp["entered"] != "BANKNIFTY25AUG44700PE" {
		t.Errorf("unexpected flip legs: %+v", resp)
	}

	// Reverse again immediately: the engine clock is pinned, so the
	// cooldown window never elapses.
	resp = postWebhook(t, s, `{"type":"CE"}`)
	if resp["status"] != "skipped" || resp["reason"] != "flip cooldown" {
		t.Fatalf("expected cooldown skip, got %+v", resp)
	}
}

func TestWebhook_DefaultQuantity(t *testing.T) {
	s, store := newRehearsalServer(t)

	resp := postWebhook(t, s, `{"type":"CE"}`)
	if resp["status"] != "test" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	snapshot := store.Snapshot(t.Context())
	if len(snapshot) != 1 || snapshot[0].Quantity != 105 {
		t.Errorf("expected default qty 105, got %+v", snapshot)
	}
}

func TestViewPositions(t *testing.T) {
	s, store := newRehearsalServer(t)
	store.Open(t.Context(), "BANKNIFTY25AUG44600CE", 105)

	req := httptest.NewRequest(http.MethodGet, "/view_positions", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected code %d", rec.Code)
	}
	var resp struct {
		Mode      string `json:"mode"`
		Positions []struct {
			Symbol   string `json:"symbol"`
			Quantity int    `json:"quantity"`
		} `json:"positions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Mode != "rehearsal" || len(resp.Positions) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAdminEndpoints_RehearsalOnly(t *testing.T) {
	s, store := newRehearsalServer(t)
	store.Open(t.Context(), "BANKNIFTY25AUG44600CE", 105)

	req := httptest.NewRequest(http.MethodGet, "/remove_position?symbol=BANKNIFTY25AUG44600CE", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected code %d", rec.Code)
	}
	if len(store.Snapshot(t.Context())) != 0 {
		t.Error("position was not removed")
	}

	req = httptest.NewRequest(http.MethodGet, "/reset_positions", nil)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected code %d", rec.Code)
	}

	// A live-mode server must refuse both.
	live := NewServer(0, nil, nil, nil, nil, 105, "live", zap.NewNop())
	for _, path := range []string{"/reset_positions", "/remove_position?symbol=X"} {
		req = httptest.NewRequest(http.MethodGet, path, nil)
		rec = httptest.NewRecorder()
		live.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s must be forbidden in live mode, got %d", path, rec.Code)
		}
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	s, _ := newRehearsalServer(t)

	req := httptest.NewRequest(http.MethodGet, "/viewpositions", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown path must answer 404, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newRehearsalServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp["status"] != "ok" || resp["mode"] != "rehearsal" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
