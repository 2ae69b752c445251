package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store hands out billing sessions to the gateway. Sessions are memory
// resident only, nothing here survives a restart.
type Store struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	searcher  Searcher
	submitter Submitter
	quiet     time.Duration
}

func NewStore(searcher Searcher, submitter Submitter, quiet time.Duration) *Store {
	return &Store{
		sessions:  make(map[string]*Session),
		searcher:  searcher,
		submitter: submitter,
		quiet:     quiet,
	}
}

func (st *Store) Create() *Session {
	session := NewSession(uuid.NewString(), st.searcher, st.submitter, st.quiet)
	st.mu.Lock()
	st.sessions[session.ID] = session
	st.mu.Unlock()
	return session
}

func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	session, ok := st.sessions[id]
	return session, ok
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	session, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		session.Close()
	}
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
