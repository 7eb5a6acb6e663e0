package web

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/raghav/banknifty_flip/internal/domain"
	"github.com/raghav/banknifty_flip/internal/infrastructure/metrics"
	"github.com/raghav/banknifty_flip/internal/usecase"
	"go.uber.org/zap"
)

// webhookPayload is the validated schema for the alerting tool's POST
// body. Anything outside it is rejected before the engine runs.
type webhookPayload struct {
	Type string `json:"type"`
	Qty  int    `json:"qty"`
}

// handleWebhook converts one alert delivery into an engine decision.
// Every outcome is HTTP 200 with a status field so the alerting source
// never retries at the transport level; deduplication is the engine's
// job, not the webhook's.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "error", "reason": "unreadable body"})
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.logger.Warn("malformed webhook payload", zap.ByteString("raw", body))
		metrics.IncSignal(usecase.StatusError)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "error",
			"reason": "invalid JSON",
			"raw":    string(body),
		})
		return
	}

	side, err := domain.ParseOptionSide(payload.Type)
	if err != nil {
		metrics.IncSignal(usecase.StatusError)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "error",
			"reason": err.Error(),
		})
		return
	}

	qty := payload.Qty
	if qty == 0 {
		qty = s.defaultQty
	}
	sig := domain.Signal{Side: side, Qty: qty, ReceivedAt: time.Now()}

	result, err := s.engine.Process(r.Context(), sig)
	if err != nil {
		s.logger.Error("signal processing failed",
			zap.String("side", string(side)),
			zap.Bool("partial_flip", usecase.IsPartialFlip(err)),
			zap.Error(err))
	}
	metrics.IncSignal(result.Status)
	s.recordSignal(r, sig, result)

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) recordSignal(r *http.Request, sig domain.Signal, result *usecase.Result) {
	if s.journal == nil {
		return
	}
	entry := &domain.SignalLog{
		Side:      string(sig.Side),
		Quantity:  sig.Qty,
		Status:    result.Status,
		Reason:    result.Reason,
		CreatedAt: sig.ReceivedAt,
	}
	if err := s.journal.RecordSignal(r.Context(), entry); err != nil {
		s.logger.Warn("failed to journal signal", zap.Error(err))
	}
}

func (s *Server) handleViewPositions(w http.ResponseWriter, r *http.Request) {
	positions := s.store.Snapshot(r.Context())
	if positions == nil {
		positions = []domain.Position{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mode":      s.mode,
		"positions": positions,
	})
}

func (s *Server) handleResetPositions(w http.ResponseWriter, r *http.Request) {
	if s.simStore == nil {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"status": "error",
			"reason": domain.ErrLiveOnly.Error(),
		})
		return
	}
	s.engine.Exclusive(s.simStore.Reset)
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success"})
}

func (s *Server) handleRemovePosition(w http.ResponseWriter, r *http.Request) {
	if s.simStore == nil {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"status": "error",
			"reason": domain.ErrLiveOnly.Error(),
		})
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "error",
			"reason": "missing symbol parameter",
		})
		return
	}
	var removed bool
	s.engine.Exclusive(func() { removed = s.simStore.Remove(symbol) })
	if !removed {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "error",
			"reason": "no such position: " + symbol,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "removed": symbol})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"orders": []domain.Order{}})
		return
	}
	orders, err := s.journal.ListOrders(r.Context(), 50)
	if err != nil {
		s.logger.Error("failed to list orders", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"status": "error",
			"reason": "failed to list orders",
		})
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"mode":   s.mode,
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
