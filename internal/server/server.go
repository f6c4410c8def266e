// Package server exposes the temporal service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rcliao/temporal-kv/internal/model"
	"github.com/rcliao/temporal-kv/internal/temporal"
)

// StatsFunc reports backend statistics for GET /stats.
type StatsFunc func(ctx context.Context) (any, error)

// Server routes /object requests to a temporal.Service.
type Server struct {
	svc    *temporal.Service
	logger *slog.Logger
	stats  StatsFunc
}

func New(svc *temporal.Service, logger *slog.Logger, stats StatsFunc) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{svc: svc, logger: logger, stats: stats}
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /object", s.handleMissingKey)
	mux.HandleFunc("GET /object/{key}", s.handleRead)
	mux.HandleFunc("GET /object/{key}/history", s.handleHistory)
	mux.HandleFunc("POST /object", s.handleWrite)
	mux.HandleFunc("POST /object/{$}", s.handleWrite)
	if s.stats != nil {
		mux.HandleFunc("GET /stats", s.handleStats)
	}
	return s.logRequests(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleMissingKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "key is required"})
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	asOf, err := temporal.ParseTimestamp(r.URL.Query().Get("timestamp"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.svc.Read(r.Context(), r.PathValue("key"), asOf)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	hist, err := s.svc.History(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "body must be a JSON object"})
		return
	}

	switch {
	case len(body) == 0:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "At least one key-value pair is required"})
		return
	case len(body) > 1:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Maximum one key-value pair can be supplied"})
		return
	}

	var key string
	var value model.Value
	for k, v := range body {
		key, value = k, model.Value(v)
	}

	res, err := s.svc.Write(r.Context(), key, value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, temporal.ErrKeyNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Key not found"})
	case errors.Is(err, temporal.ErrValueNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Value not found"})
	case errors.Is(err, temporal.ErrInvalidTimestamp), errors.Is(err, temporal.ErrInvalidKey):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
