package relay

import (
	"sync"

	"moqrelay/internal/moq"
)

// Remotes is the ordered table of peer origins a relay node knows
// about, keyed by name. Insertion order is preserved since Router tries
// remotes in the order they were added, matching a deterministic
// "closest/first-configured origin wins" policy.
type Remotes struct {
	mu     sync.Mutex
	order  []string
	byName map[string]*RemoteOrigin
}

// NewRemotes creates an empty remote origin table.
func NewRemotes() *Remotes {
	return &Remotes{byName: make(map[string]*RemoteOrigin)}
}

// Add registers origin, replacing any existing entry of the same name.
func (r *Remotes) Add(origin *RemoteOrigin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[origin.Name]; !exists {
		r.order = append(r.order, origin.Name)
	}
	r.byName[origin.Name] = origin
}

// Names returns every configured remote origin's name, in insertion
// order.
func (r *Remotes) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Resolve tries every known remote in insertion order, returning the
// first that has announced path.
func (r *Remotes) Resolve(path string) (moq.BroadcastSource, bool) {
	r.mu.Lock()
	origins := make([]*RemoteOrigin, 0, len(r.order))
	for _, name := range r.order {
		origins = append(origins, r.byName[name])
	}
	r.mu.Unlock()

	for _, origin := range origins {
		if source, ok := origin.Resolve(path); ok {
			return source, true
		}
	}
	return nil, false
}

// Router resolves a broadcast path against Locals first, falling back
// to Remotes. It implements moq.Router, so a session's Publisher falls
// through to it for any path the session did not announce itself.
type Router struct {
	Locals  *Locals
	Remotes *Remotes
}

// NewRouter builds a Router over the given tables. remotes may be nil
// for a node that does not participate in a cluster.
func NewRouter(locals *Locals, remotes *Remotes) *Router {
	return &Router{Locals: locals, Remotes: remotes}
}

// Resolve implements moq.Router.
func (r *Router) Resolve(path string) (moq.BroadcastSource, bool) {
	if source, ok := r.Locals.Resolve(path); ok {
		return source, true
	}
	if r.Remotes == nil {
		return nil, false
	}
	return r.Remotes.Resolve(path)
}
