package navupdate

import (
	"sync"

	"github.com/ndewijer/ledger-mf-companion/internal/apperrors"
	"github.com/ndewijer/ledger-mf-companion/internal/model"
)

// Registry holds at most one open session per ledger.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Open creates a new session for the ledger, replacing any idle or reviewing
// session already open for it. A session that is fetching or applying cannot
// be replaced and apperrors.ErrSessionBusy is returned.
func (r *Registry) Open(ledger model.LedgerContext, funds []model.Fund, backend Backend, opts ...Option) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[ledger.ID]; ok {
		if existing.Busy() {
			return nil, apperrors.ErrSessionBusy
		}
		existing.Close()
	}

	s := NewSession(ledger, funds, backend, opts...)
	r.sessions[ledger.ID] = s
	return s, nil
}

// Get returns the open session for a ledger. Closed sessions are dropped and
// reported as apperrors.ErrSessionNotFound.
func (r *Registry) Get(ledgerID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[ledgerID]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	if s.State() == StateClosed {
		delete(r.sessions, ledgerID)
		return nil, apperrors.ErrSessionNotFound
	}
	return s, nil
}

// Close closes and removes the ledger's session. It reports whether a session existed.
func (r *Registry) Close(ledgerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[ledgerID]
	if !ok {
		return false
	}
	s.Close()
	delete(r.sessions, ledgerID)
	return true
}

// Release removes sess from the registry if it is still the ledger's
// registered session. A session opened for the ledger since then is left alone.
func (r *Registry) Release(ledgerID string, sess *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[ledgerID] != sess {
		return false
	}
	sess.Close()
	delete(r.sessions, ledgerID)
	return true
}

// CloseAll closes every open session. Running fetches stop at their next fund boundary.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		s.Close()
		delete(r.sessions, id)
	}
}

// Len returns the number of sessions currently held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
