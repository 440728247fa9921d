package format

import (
	"sort"
	"sync"
	"time"
)

// Service provides cached access to the live format map. The cache is a
// single process-wide snapshot populated lazily with a TTL; admin writes
// call Invalidate so the next read refreshes from storage.
type Service struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time

	mu        sync.RWMutex
	cached    map[string]Format
	expiresAt time.Time
}

func NewService(r Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Service{repo: r, ttl: ttl, now: time.Now}
}

// ActiveMap returns the live format map keyed by format key. The snapshot
// is refreshed from the repository when the TTL has lapsed.
func (s *Service) ActiveMap() (map[string]Format, error) {
	s.mu.RLock()
	if s.cached != nil && s.now().Before(s.expiresAt) {
		m := s.cached
		s.mu.RUnlock()
		return m, nil
	}
	s.mu.RUnlock()

	formats, err := s.repo.ListActive()
	if err != nil {
		return nil, err
	}
	m := make(map[string]Format, len(formats))
	for _, f := range formats {
		m[f.Key] = f
	}

	s.mu.Lock()
	s.cached = m
	s.expiresAt = s.now().Add(s.ttl)
	s.mu.Unlock()
	return m, nil
}

// Get resolves a single format key against the live map.
func (s *Service) Get(key string) (Format, error) {
	m, err := s.ActiveMap()
	if err != nil {
		return Format{}, err
	}
	f, ok := m[key]
	if !ok {
		return Format{}, ErrNotFound
	}
	return f, nil
}

// List returns the active formats ordered by price, served from the same
// cached snapshot as Get so the public list and checkout validation agree.
func (s *Service) List() ([]Format, error) {
	m, err := s.ActiveMap()
	if err != nil {
		return nil, err
	}
	out := make([]Format, 0, len(m))
	for _, f := range m {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// Upsert writes a format and invalidates the cached map.
func (s *Service) Upsert(f Format) (Format, error) {
	saved, err := s.repo.Upsert(f)
	if err != nil {
		return Format{}, err
	}
	s.Invalidate()
	return saved, nil
}

// Invalidate drops the cached snapshot so the next read hits storage.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}
