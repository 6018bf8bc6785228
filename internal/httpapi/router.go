// Package httpapi adapts the serverless-style request envelope onto the
// orchestrator. It is a thin dispatch surface: all job semantics live behind
// the single Handle entry point.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"infinitetalk/internal/infra"
)

// Handler is the orchestrator's single entry point.
type Handler interface {
	Handle(ctx context.Context, payload json.RawMessage) any
}

// runEnvelope mirrors the hosting platform's request shape: the caller's
// payload travels under an input key.
type runEnvelope struct {
	Input json.RawMessage `json:"input"`
}

// NewRouter builds the HTTP surface: POST /run for job actions and a health
// probe.
func NewRouter(h Handler, logger infra.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, accessLog(logger))

	r.Get("/v1/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/run", func(w http.ResponseWriter, req *http.Request) {
		var envelope runEnvelope
		if err := json.NewDecoder(req.Body).Decode(&envelope); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
			return
		}
		resp := h.Handle(req.Context(), envelope.Input)
		// Pipeline failures are payload-level outcomes, not transport
		// errors; callers branch on the status field.
		writeJSON(w, http.StatusOK, resp)
	})

	return r
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func accessLog(logger infra.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sw.status).
				Dur("elapsed", time.Since(start)).
				Msg("http request")
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
