package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TobiSchelling/ResearchConnect/internal/labs"
)

// CookieName is the cookie carrying the session id.
const CookieName = "rc_session"

type entry struct {
	state    *State
	lastSeen time.Time
}

// Store maps session ids to states. All state access goes through Do, one
// call at a time.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	dataset  *labs.Dataset
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store whose new sessions browse ds. Sessions idle for
// longer than ttl are dropped by Prune.
func NewStore(ds *labs.Dataset, ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		dataset:  ds,
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetDataset replaces the dataset used by sessions created from now on.
func (st *Store) SetDataset(ds *labs.Dataset) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.dataset = ds
}

// Dataset returns the dataset new sessions start from.
func (st *Store) Dataset() *labs.Dataset {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.dataset
}

// Do runs fn on the session id, creating a fresh session when id is
// unknown. It returns the id actually used.
func (st *Store) Do(id string, fn func(*State)) string {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.sessions[id]
	if !ok {
		id = uuid.NewString()
		e = &entry{state: New(st.dataset)}
		st.sessions[id] = e
	}
	e.lastSeen = st.now()
	if fn != nil {
		fn(e.state)
	}
	return id
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Prune drops idle sessions and returns how many were removed.
func (st *Store) Prune() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := st.now().Add(-st.ttl)
	removed := 0
	for id, e := range st.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}
