package order

import (
	"sync"
	"time"
)

// Repository defines persistence operations for orders. A lookup miss is
// an expected outcome (ErrNotFound), not an exceptional one: the webhook
// reconciler handles it through its fallback chain.
type Repository interface {
	Create(ord Order) (Order, error)
	FindByID(id string) (Order, error)
	FindByCheckoutSessionID(sessionID string) (Order, error)
	FindByPaymentIntentID(intentID string) (Order, error)
	Update(id string, p Patch) (Order, error)
	ListByStatus(statuses []string) ([]Order, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu     sync.RWMutex
	orders map[string]Order
	now    func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{orders: make(map[string]Order), now: time.Now}
}

func (r *InMemoryRepository) Create(ord Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[ord.ID] = ord
	return ord, nil
}

func (r *InMemoryRepository) FindByID(id string) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ord, ok := r.orders[id]; ok {
		return ord, nil
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) FindByCheckoutSessionID(sessionID string) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ord := range r.orders {
		if ord.CheckoutSessionID != nil && *ord.CheckoutSessionID == sessionID {
			return ord, nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) FindByPaymentIntentID(intentID string) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ord := range r.orders {
		if ord.PaymentIntentID != nil && *ord.PaymentIntentID == intentID {
			return ord, nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) Update(id string, p Patch) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ord, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	ord = p.Apply(ord, r.now().UTC().Format(time.RFC3339))
	r.orders[id] = ord
	return ord, nil
}

func (r *InMemoryRepository) ListByStatus(statuses []string) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0)
	for _, ord := range r.orders {
		if len(statuses) == 0 {
			out = append(out, ord)
			continue
		}
		for _, s := range statuses {
			if string(ord.Status) == s {
				out = append(out, ord)
				break
			}
		}
	}
	return out, nil
}
