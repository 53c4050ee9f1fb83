package hold

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps held bills in process memory. Suitable for a single
// terminal host; multi-terminal deployments use the Redis store instead.
type MemoryStore struct {
	mu    sync.Mutex
	bills map[string]Bill

	now   func() time.Time
	newID func() string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bills: make(map[string]Bill),
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// Hold stores the bill under a fresh identity and returns it.
func (s *MemoryStore) Hold(_ context.Context, bill Bill) (string, error) {
	if len(bill.Lines) == 0 {
		return "", ErrEmptyCart
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bill.ID = s.newID()
	bill.HeldAt = s.now()
	s.bills[bill.ID] = bill
	return bill.ID, nil
}

// Recall removes the bill and returns it.
func (s *MemoryStore) Recall(_ context.Context, id string) (*Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bill, ok := s.bills[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.bills, id)
	return &bill, nil
}

// Delete removes the bill if present.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bills, id)
	return nil
}

// List returns all held bills, oldest first.
func (s *MemoryStore) List(_ context.Context) ([]Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Bill, 0, len(s.bills))
	for _, b := range s.bills {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HeldAt.Before(out[j].HeldAt) })
	return out, nil
}
