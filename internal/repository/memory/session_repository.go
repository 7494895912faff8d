package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"ai-interviewer-be/pkg/interview"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	sessionPrefix   = "session:"
	candidatePrefix = "candidate:"

	DefaultSessionTTL      = 2 * time.Hour
	DefaultCleanupInterval = 10 * time.Minute
)

var ErrLeaseReleased = errors.New("session lease already released")

type entry struct {
	mu      sync.RWMutex
	session *interview.Session
	lease   chan struct{}
}

func (e *entry) snapshot() *interview.Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session.Clone()
}

// SessionRepository is the in-process session registry. Sessions live in a
// go-cache keyed by id and expire after a period without commits; a second
// key per candidate stops one candidate from running two interviews at once.
type SessionRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewSessionRepository(ttl, cleanupInterval time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	r := &SessionRepository{
		cache: cache.New(ttl, cleanupInterval),
	}
	r.cache.OnEvicted(r.onEvicted)
	return r
}

func sessionKey(id string) string {
	return sessionPrefix + id
}

func candidateKey(candidateID string) string {
	return candidatePrefix + candidateID
}

// onEvicted runs after go-cache has dropped its lock, on Delete and on expiry.
func (r *SessionRepository) onEvicted(key string, value interface{}) {
	if !strings.HasPrefix(key, sessionPrefix) {
		return
	}
	if e, ok := value.(*entry); ok {
		s := e.snapshot()
		r.releaseCandidate(s.CandidateID, s.ID)
	}
}

func (r *SessionRepository) releaseCandidate(candidateID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, ok := r.cache.Get(candidateKey(candidateID)); ok && owner.(string) == sessionID {
		r.cache.Delete(candidateKey(candidateID))
	}
}

// Create allocates a fresh ongoing session for the candidate. It fails with
// ErrDuplicateSession while the candidate still holds an ongoing one.
func (r *SessionRepository) Create(candidateID string, maxRounds int, difficulty interview.Difficulty) (*interview.Session, error) {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.cache.Add(candidateKey(candidateID), id, cache.DefaultExpiration); err != nil {
		return nil, interview.ErrDuplicateSession
	}

	s := interview.NewSession(id, candidateID, maxRounds, difficulty)
	r.cache.Set(sessionKey(id), &entry{
		session: s,
		lease:   make(chan struct{}, 1),
	}, cache.DefaultExpiration)

	return s.Clone(), nil
}

func (r *SessionRepository) entry(id string) (*entry, bool) {
	v, found := r.cache.Get(sessionKey(id))
	if !found {
		return nil, false
	}
	return v.(*entry), true
}

// Get returns a snapshot of the session. Callers may mutate it freely.
func (r *SessionRepository) Get(id string) (*interview.Session, error) {
	e, ok := r.entry(id)
	if !ok {
		return nil, interview.ErrSessionNotFound
	}
	return e.snapshot(), nil
}

// Remove deletes the session. Removing an unknown id is a no-op.
func (r *SessionRepository) Remove(id string) {
	r.cache.Delete(sessionKey(id))
}

// Active lists ongoing sessions, oldest first.
func (r *SessionRepository) Active() []*interview.Session {
	sessions := make([]*interview.Session, 0)
	for key, item := range r.cache.Items() {
		if !strings.HasPrefix(key, sessionPrefix) {
			continue
		}
		s := item.Object.(*entry).snapshot()
		if !s.Ended() {
			sessions = append(sessions, s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}

// Count reports the number of stored sessions, ended ones included.
func (r *SessionRepository) Count() int {
	n := 0
	for key := range r.cache.Items() {
		if strings.HasPrefix(key, sessionPrefix) {
			n++
		}
	}
	return n
}

// Lease waits for exclusive turn rights on a session. Only one lease per
// session exists at a time; reads through Get never wait on it.
func (r *SessionRepository) Lease(ctx context.Context, id string) (*Lease, error) {
	e, ok := r.entry(id)
	if !ok {
		return nil, interview.ErrSessionNotFound
	}

	select {
	case e.lease <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	l := &Lease{repo: r, id: id, entry: e}
	if err := l.Valid(); err != nil {
		l.Release()
		return nil, err
	}
	// A session with a turn in flight must not expire under it.
	r.cache.Set(sessionKey(id), e, cache.DefaultExpiration)
	return l, nil
}

// Lease is the exclusive right to advance one session.
type Lease struct {
	repo  *SessionRepository
	id    string
	entry *entry
	once  sync.Once
	done  bool
}

// Session returns a private copy of the state as of the lease.
func (l *Lease) Session() *interview.Session {
	return l.entry.snapshot()
}

// Valid reports whether the leased session is still the stored one.
func (l *Lease) Valid() error {
	if l.done {
		return ErrLeaseReleased
	}
	if current, ok := l.repo.entry(l.id); !ok || current != l.entry {
		return interview.ErrSessionNotFound
	}
	return nil
}

// Commit replaces the stored state with s and refreshes its expiry.
// Ending the session frees the candidate for a new one.
func (l *Lease) Commit(s *interview.Session) error {
	if err := l.Valid(); err != nil {
		return err
	}
	r := l.repo

	l.entry.mu.Lock()
	l.entry.session = s.Clone()
	l.entry.mu.Unlock()

	r.cache.Set(sessionKey(l.id), l.entry, cache.DefaultExpiration)

	if s.Ended() {
		r.releaseCandidate(s.CandidateID, s.ID)
		return nil
	}

	r.mu.Lock()
	if owner, ok := r.cache.Get(candidateKey(s.CandidateID)); !ok || owner.(string) == s.ID {
		r.cache.Set(candidateKey(s.CandidateID), s.ID, cache.DefaultExpiration)
	}
	r.mu.Unlock()
	return nil
}

// Release gives the turn back. It is safe to call more than once.
func (l *Lease) Release() {
	l.once.Do(func() {
		l.done = true
		<-l.entry.lease
	})
}
