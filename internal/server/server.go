// Package server exposes the workflow over HTTP: POST /ask plus health and
// metrics endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"customsagent/internal/graph"
)

// AskFunc runs the workflow for one question. The HTTP layer depends only
// on this shape, not on how the workflow is assembled.
type AskFunc func(ctx context.Context, question string) *graph.State

// HealthFunc reports whether the backing services are reachable.
type HealthFunc func(ctx context.Context) error

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Server is the HTTP surface.
type Server struct {
	ask    AskFunc
	health HealthFunc
	http   *http.Server
	log    *log.Logger
}

func New(addr string, ask AskFunc, health HealthFunc, logger *log.Logger) *Server {
	s := &Server{
		ask:    ask,
		health: health,
		log:    logger.With("component", "server"),
	}

	router := mux.NewRouter()
	router.HandleFunc("/ask", s.handleAsk).Methods(http.MethodPost)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.log.Info("http server listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, askResponse{Error: "invalid request body"})
		askRequestsTotal.WithLabelValues(strconv.Itoa(http.StatusBadRequest)).Inc()
		return
	}

	state := s.ask(r.Context(), req.Question)
	workflowRunsTotal.WithLabelValues(state.Status.String()).Inc()

	status := http.StatusOK
	resp := askResponse{Answer: state.Response}
	if state.Err != nil {
		resp = askResponse{Error: graph.UserMessage(state.Err)}
		if errors.Is(state.Err, graph.ErrValidation) {
			status = http.StatusBadRequest
		} else {
			status = http.StatusBadGateway
		}
	}

	writeJSON(w, status, resp)
	askRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	askRequestDuration.Observe(time.Since(started).Seconds())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health(r.Context()); err != nil {
		s.log.Warn("health check failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
