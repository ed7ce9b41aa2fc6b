package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	"upi-gateway/web/db"
)

// MemStore keeps orders in a mutex-guarded map. Same contract as
// GormStore; used by tests and handy for local runs without MySQL.
type MemStore struct {
	mu     sync.Mutex
	orders map[string]db.Order
	nextID uint
}

func NewMemStore() *MemStore {
	return &MemStore{orders: make(map[string]db.Order)}
}

func (s *MemStore) Insert(_ context.Context, o *db.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.PublicID]; exists {
		return fmt.Errorf("public id %q: %w", o.PublicID, ErrConflict)
	}
	s.nextID++
	o.ID = s.nextID
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	s.orders[o.PublicID] = *o
	return nil
}

func (s *MemStore) Get(_ context.Context, publicID string) (db.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[publicID]
	if !ok {
		return db.Order{}, ErrNotFound
	}
	return o, nil
}

func (s *MemStore) Transition(_ context.Context, publicID string, swap Swap) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[publicID]
	if !ok {
		return false, nil
	}

	guard := false
	for _, from := range swap.From {
		if o.Status == from {
			guard = true
			break
		}
	}
	if !guard {
		return false, nil
	}
	if swap.UTR != "" {
		if o.UTR != "" {
			return false, nil
		}
		o.UTR = swap.UTR
	}
	o.Status = swap.To
	o.UpdatedAt = time.Now()
	s.orders[publicID] = o
	return true, nil
}
