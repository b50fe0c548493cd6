package runtime

import (
	"sort"
	"sync"

	"dm-relay/contract"
)

// Registry is the source of truth for presence: which users currently hold a
// live connection. At most one sink per user; a second Bind for the same
// identity supersedes the previous one (single-device presence). The registry
// never closes a superseded sink, it only forgets it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.ConnectionSink
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.ConnectionSink),
	}
}

// Bind registers sink as the live connection for userID, replacing any
// previous binding. Idempotent overwrite, no error condition.
func (r *Registry) Bind(userID string, sink contract.ConnectionSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = sink
}

// Unbind removes the mapping only if the currently bound sink is the one
// asking to be removed. Without this compare-and-unbind, a slow disconnect of
// a superseded connection would evict the freshly reconnected one.
func (r *Registry) Unbind(userID string, sink contract.ConnectionSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[userID]; ok && current == sink {
		delete(r.sessions, userID)
	}
}

// Resolve is a pure lookup with no side effects.
func (r *Registry) Resolve(userID string) (contract.ConnectionSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sessions[userID]
	return sink, ok
}

// Online returns the identities currently bound, sorted for stable output.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.sessions))
	for userID := range r.sessions {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}
