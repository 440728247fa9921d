package checkout

import "sync"

// Repository persists checkout sessions so checkout state survives page
// reloads without trusting client-held values.
type Repository interface {
	Create(s Session) (Session, error)
	Get(id string) (Session, error)
	Save(s Session) (Session, error)
	FindByPricedFingerprint(fp string) (Session, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{sessions: make(map[string]Session)}
}

func (r *InMemoryRepository) Create(s Session) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return s, nil
}

func (r *InMemoryRepository) Get(id string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.sessions[id]; ok {
		return s, nil
	}
	return Session{}, ErrNotFound
}

func (r *InMemoryRepository) FindByPricedFingerprint(fp string) (Session, error) {
	if fp == "" {
		return Session{}, ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found Session
	var ok bool
	for _, s := range r.sessions {
		// RFC3339 strings order lexically, newest session wins
		if s.PricedFingerprint == fp && (!ok || s.UpdatedAt > found.UpdatedAt) {
			found = s
			ok = true
		}
	}
	if !ok {
		return Session{}, ErrNotFound
	}
	return found, nil
}

func (r *InMemoryRepository) Save(s Session) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		return Session{}, ErrNotFound
	}
	r.sessions[s.ID] = s
	return s, nil
}
