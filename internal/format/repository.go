package format

import "sync"

// Repository provides access to the book format table.
type Repository interface {
	ListActive() ([]Format, error)
	Upsert(f Format) (Format, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu      sync.RWMutex
	formats map[string]Format
}

func NewInMemoryRepository(seed []Format) *InMemoryRepository {
	r := &InMemoryRepository{formats: make(map[string]Format, len(seed))}
	for _, f := range seed {
		r.formats[f.Key] = f
	}
	return r
}

func (r *InMemoryRepository) ListActive() ([]Format, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Format, 0, len(r.formats))
	for _, f := range r.formats {
		if f.Active {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Upsert(f Format) (Format, error) {
	if err := f.Validate(); err != nil {
		return Format{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats[f.Key] = f
	return f, nil
}
