// Package statusapi exposes a small read-only HTTP surface over the
// relay's in-memory state: process metadata, locally registered
// broadcasts, and configured remote origins. It never touches the
// media path; every handler is a point-in-time snapshot read.
package statusapi

import (
	"net/http"
)

// BroadcastLister is the minimal shape Service needs from a local
// broadcast registry. *relay.Locals satisfies it directly.
type BroadcastLister interface {
	Paths() []string
}

// RemoteLister is the minimal shape Service needs from a remote origin
// table. *relay.Remotes satisfies it directly.
type RemoteLister interface {
	Names() []string
}

// Service provides the read-only status HTTP API.
type Service struct {
	locals    BroadcastLister
	remotes   RemoteLister
	startTime int64
}

// NewService creates a status API service over locals and remotes.
// remotes may be nil for a standalone relay with no cluster
// participation.
func NewService(locals BroadcastLister, remotes RemoteLister) *Service {
	return &Service{
		locals:    locals,
		remotes:   remotes,
		startTime: nowUnix(),
	}
}

// RegisterRoutes registers the status API routes on mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/server", s.handleServer)
	mux.HandleFunc("/api/broadcasts", s.handleBroadcasts)
	mux.HandleFunc("/api/remotes", s.handleRemotes)
}
