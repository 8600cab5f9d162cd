package lease

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. It is the default when no Redis address
// is configured; leases do not survive a process restart, which matches the
// reliability of the original design while still reclaiming carts abandoned
// by live clients.
type MemoryStore struct {
	mu     sync.Mutex
	leases map[string]Lease
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{leases: make(map[string]Lease)}
}

func (s *MemoryStore) Acquire(_ context.Context, l Lease) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leases[l.CartID] = l
	return nil
}

func (s *MemoryStore) Release(_ context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.leases, cartID)
	return nil
}

func (s *MemoryStore) Expired(_ context.Context, now time.Time) ([]Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Lease
	for _, l := range s.leases {
		if !l.Deadline.After(now) {
			out = append(out, l)
		}
	}
	return out, nil
}
