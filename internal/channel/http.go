package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"kbase/internal/agent"
	"kbase/internal/search"
)

// Server is the HTTP channel: a JSON API over the agent and the search
// service.
type Server struct {
	agent    *agent.Agent
	search   *search.Service
	feedback *agent.FeedbackCollector
}

// NewServer creates the HTTP channel. feedback may be nil.
func NewServer(a *agent.Agent, svc *search.Service, fc *agent.FeedbackCollector) *Server {
	return &Server{agent: a, search: svc, feedback: fc}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /feedback", s.handleFeedback)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// ListenAndServe runs the API until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("channel: http api listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("channel: shutting down: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type askRequest struct {
	Query string `json:"query"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	answer, err := s.agent.Answer(r.Context(), req.Query)
	if err != nil {
		log.Printf("channel: answering %q: %v", req.Query, err)
		writeError(w, http.StatusBadGateway, "failed to generate answer")
		return
	}

	if s.feedback != nil {
		if err := s.feedback.Log(req.Query, answer, nil); err != nil {
			log.Printf("channel: logging feedback: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchResponse struct {
	Matches []search.Match `json:"matches"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	matches, err := s.search.SearchChunks(r.Context(), req.Query, req.TopK)
	if err != nil {
		log.Printf("channel: searching %q: %v", req.Query, err)
		writeError(w, http.StatusBadGateway, "search failed")
		return
	}
	if matches == nil {
		matches = []search.Match{}
	}

	writeJSON(w, http.StatusOK, searchResponse{Matches: matches})
}

type feedbackRequest struct {
	Query    string `json:"query"`
	Response string `json:"response"`
	Rating   *int   `json:"rating"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if s.feedback == nil {
		writeError(w, http.StatusNotFound, "feedback collection disabled")
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		writeError(w, http.StatusBadRequest, "rating must be 1-5")
		return
	}

	if err := s.feedback.Log(req.Query, req.Response, req.Rating); err != nil {
		log.Printf("channel: logging feedback: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to record feedback")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("channel: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
