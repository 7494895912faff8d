package memory

import (
	"fmt"
	"sync"

	"ai-interviewer-be/pkg/embedding"
	"ai-interviewer-be/pkg/interview"

	chromem "github.com/philippgille/chromem-go"
)

// Scope decides which sessions share a memory store.
type Scope string

const (
	ScopeCandidate Scope = "candidate"
	ScopeSession   Scope = "session"
)

func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeCandidate:
		return ScopeCandidate, nil
	case ScopeSession:
		return ScopeSession, nil
	default:
		return "", fmt.Errorf("unknown memory scope %q", s)
	}
}

// Registry hands out one Store per scope key, all in a single chromem DB.
type Registry struct {
	mu         sync.RWMutex
	db         *chromem.DB
	scope      Scope
	embedder   embedding.Provider
	dimensions int
	stores     map[string]*Store
}

func NewRegistry(scope Scope, embedder embedding.Provider) *Registry {
	return &Registry{
		db:         chromem.NewDB(),
		scope:      scope,
		embedder:   embedder,
		dimensions: embedder.Dimensions(),
		stores:     make(map[string]*Store),
	}
}

func (r *Registry) Scope() Scope {
	return r.scope
}

// Key returns the store key a session maps to under the configured scope.
func (r *Registry) Key(sessionID, candidateID string) string {
	if r.scope == ScopeSession || candidateID == "" {
		return "session_" + sessionID
	}
	return "candidate_" + candidateID
}

// For returns the store for a session, creating it on first use.
func (r *Registry) For(sessionID, candidateID string) (*Store, error) {
	key := r.Key(sessionID, candidateID)

	r.mu.RLock()
	store, ok := r.stores[key]
	r.mu.RUnlock()
	if ok {
		return store, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if store, ok := r.stores[key]; ok {
		return store, nil
	}

	store, err := NewStore(r.db, key, r.embedder, r.dimensions)
	if err != nil {
		return nil, err
	}
	r.stores[key] = store
	return store, nil
}

// Lookup returns an existing store without creating one.
func (r *Registry) Lookup(sessionID, candidateID string) (*Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, ok := r.stores[r.Key(sessionID, candidateID)]
	return store, ok
}

// Drop forgets a session-scoped store. Candidate stores outlive sessions.
func (r *Registry) Drop(sessionID, candidateID string) error {
	if r.scope != ScopeSession {
		return nil
	}
	key := r.Key(sessionID, candidateID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stores[key]; !ok {
		return nil
	}
	delete(r.stores, key)
	if err := r.db.DeleteCollection(key); err != nil {
		return fmt.Errorf("%w: delete collection %s: %v", interview.ErrMemoryIndex, key, err)
	}
	return nil
}
