package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raghav/banknifty_flip/internal/domain"
	"github.com/raghav/banknifty_flip/internal/usecase"
	"go.uber.org/zap"
)

type Server struct {
	router     *http.ServeMux
	server     *http.Server
	engine     *usecase.FlipEngine
	store      usecase.PositionStore
	simStore   *usecase.SimPositionStore // nil in live mode
	journal    domain.TradeJournal
	defaultQty int
	mode       string
	logger     *zap.Logger
}

func NewServer(
	port int,
	engine *usecase.FlipEngine,
	store usecase.PositionStore,
	simStore *usecase.SimPositionStore,
	journal domain.TradeJournal,
	defaultQty int,
	mode string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:     http.NewServeMux(),
		engine:     engine,
		store:      store,
		simStore:   simStore,
		journal:    journal,
		defaultQty: defaultQty,
		mode:       mode,
		logger:     logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.recoverMiddleware(s.router),
	}
	return s
}

func (s *Server) routes() {
	// Health. {$} pins the pattern to the root; unknown paths 404
	// instead of answering the health body.
	s.router.HandleFunc("GET /{$}", s.handleHealth)

	// Signals
	s.router.HandleFunc("POST /webhook", s.handleWebhook)

	// Positions
	s.router.HandleFunc("GET /view_positions", s.handleViewPositions)
	s.router.HandleFunc("GET /reset_positions", s.handleResetPositions)
	s.router.HandleFunc("GET /remove_position", s.handleRemovePosition)

	// Journal
	s.router.HandleFunc("GET /journal", s.handleJournal)

	// Metrics
	s.router.Handle("GET /metrics", promhttp.Handler())
}

// recoverMiddleware is the outermost request boundary: an unexpected
// panic from the broker client becomes an error response, never a
// crashed process.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in request handler",
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec))
				writeJSON(w, http.StatusOK, map[string]interface{}{
					"status":  "error",
					"message": fmt.Sprintf("%v", rec),
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr), zap.String("mode", s.mode))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
