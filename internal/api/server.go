// Package api exposes the HTTP status interface for the discovery service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/outreachkit/prospector/internal/metrics"
	"github.com/outreachkit/prospector/internal/pipeline"
	"github.com/outreachkit/prospector/internal/progress"
	"github.com/outreachkit/prospector/internal/store"
)

const recordTimeout = 3 * time.Second

// Server wires the read-only status handlers.
type Server struct {
	router  chi.Router
	tracker *progress.Tracker
	records pipeline.RecordStore
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes. Tracker and
// records may be nil; the corresponding endpoints then report unavailable.
func NewServer(tracker *progress.Tracker, records pipeline.RecordStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		tracker: tracker,
		records: records,
		logger:  logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/progress", s.getProgress)
	r.Route("/records", func(r chi.Router) {
		r.Get("/", s.listRecords)
		r.Get("/{user_id}", s.getRecord)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) getProgress(w http.ResponseWriter, _ *http.Request) {
	if s.tracker == nil {
		s.writeError(w, http.StatusServiceUnavailable, "progress tracking unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	if s.records == nil {
		s.writeError(w, http.StatusServiceUnavailable, "record store unavailable")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), recordTimeout)
	defer cancel()

	records, err := s.records.List(ctx)
	if err != nil {
		s.logger.Error("list records failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	if records == nil {
		records = []pipeline.BestEmailRecord{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	if s.records == nil {
		s.writeError(w, http.StatusServiceUnavailable, "record store unavailable")
		return
	}
	userID := chi.URLParam(r, "user_id")
	ctx, cancel := context.WithTimeout(r.Context(), recordTimeout)
	defer cancel()

	record, err := s.records.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "record not found")
			return
		}
		s.logger.Error("get record failed", zap.String("user_id", userID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load record")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"record": record})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
