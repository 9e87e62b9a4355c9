package statusapi

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"
)

// ServerResponse represents the /api/server response.
type ServerResponse struct {
	Uptime    int64  `json:"uptime"` // seconds
	GoVersion string `json:"go_version"`
}

// BroadcastsResponse represents the /api/broadcasts response.
type BroadcastsResponse struct {
	Broadcasts []string `json:"broadcasts"`
}

// RemotesResponse represents the /api/remotes response.
type RemotesResponse struct {
	Remotes []string `json:"remotes"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func nowUnix() int64 { return time.Now().Unix() }

// handleServer handles GET /api/server: process uptime and runtime version.
func (s *Service) handleServer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.writeJSON(w, http.StatusOK, ServerResponse{
		Uptime:    nowUnix() - s.startTime,
		GoVersion: runtime.Version(),
	})
}

// handleBroadcasts handles GET /api/broadcasts: every broadcast path
// currently registered by a locally connected producer.
func (s *Service) handleBroadcasts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	paths := s.locals.Paths()
	if paths == nil {
		paths = []string{}
	}
	s.writeJSON(w, http.StatusOK, BroadcastsResponse{Broadcasts: paths})
}

// handleRemotes handles GET /api/remotes: every configured peer origin
// name, in the order the cluster loop discovered them.
func (s *Service) handleRemotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var names []string
	if s.remotes != nil {
		names = s.remotes.Names()
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, RemotesResponse{Remotes: names})
}

// writeJSON writes a JSON response.
func (s *Service) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Service) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
