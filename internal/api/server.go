// Package api serves stored session data as JSON over HTTP. It is
// read-only: capture and analysis happen in the CLI pipeline, the API
// is the review surface.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/banshee-data/gait.report/internal/sessiondb"
)

// Server serves the session review API.
type Server struct {
	db *sessiondb.DB
}

// NewServer creates a server over the given session store.
func NewServer(db *sessiondb.DB) *Server {
	return &Server{db: db}
}

// Handler returns the API route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/healthz", s.handleHealthz)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/sessions/", s.handleSessionSubresource)
	return logRequests(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sessions, err := s.db.ListSessions()
	if err != nil {
		log.Printf("list sessions failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []sessiondb.SessionRow{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// handleSessionSubresource routes /api/sessions/{id}/{summary|gait|posture}.
func (s *Server) handleSessionSubresource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	sessionID, resource := parts[0], parts[1]

	var (
		payload interface{}
		err     error
	)
	switch resource {
	case "summary":
		payload, err = s.db.SessionSummary(sessionID)
	case "gait":
		payload, err = s.db.GaitFrames(sessionID)
	case "posture":
		payload, err = s.db.PostureFrames(sessionID)
	default:
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		log.Printf("session %s %s failed: %v", sessionID, resource, err)
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// writeJSON writes data as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode json response: %v", err)
	}
}

// writeJSONError writes a JSON error body with the given status.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// logRequests logs method, path, and latency for each request.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
