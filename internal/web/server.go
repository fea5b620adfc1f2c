package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dmarkov/spot_sentiment/internal/usecase"
)

// Server is the read-only HTTP surface over the published snapshot.
// Handlers never block analysis: every read is a lock-free snapshot load.
type Server struct {
	router *mux.Router
	server *http.Server

	store  *usecase.SnapshotStore
	scalp  *usecase.ScalpFilter
	health *usecase.HealthMonitor
	logger *zap.Logger

	timeNow func() time.Time
}

func NewServer(
	host string,
	port int,
	store *usecase.SnapshotStore,
	scalp *usecase.ScalpFilter,
	health *usecase.HealthMonitor,
	registry *prometheus.Registry,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		store:   store,
		scalp:   scalp,
		health:  health,
		logger:  logger,
		timeNow: time.Now,
	}
	s.routes(registry)
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes(registry *prometheus.Registry) {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/sentiment", s.handleSentiment).Methods(http.MethodGet)
	s.router.HandleFunc("/scalp-sentiment", s.handleScalpSentiment).Methods(http.MethodGet)
	s.router.HandleFunc("/market", s.handleMarket).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/legal", s.handleLegal).Methods(http.MethodGet)

	s.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

// Handler exposes the routed handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapper.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
