package auth

import (
	"context"
	"sync"
)

// AttemptStore tracks consecutive failed PIN attempts per card token. The
// counter resets on a successful verification and, for stores with a TTL,
// after the attempt window lapses.
type AttemptStore interface {
	// Attempts returns the current failed-attempt count.
	Attempts(ctx context.Context, cardToken string) (int, error)

	// Increment records one more failure and returns the updated count.
	Increment(ctx context.Context, cardToken string) (int, error)

	// Reset clears the counter.
	Reset(ctx context.Context, cardToken string) error
}

// MemoryAttemptStore is an AttemptStore backed by a map, for single-process
// deployments and tests.
type MemoryAttemptStore struct {
	mu       sync.Mutex
	attempts map[string]int
}

// NewMemoryAttemptStore returns an empty in-memory counter store.
func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{attempts: make(map[string]int)}
}

func (s *MemoryAttemptStore) Attempts(_ context.Context, cardToken string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.attempts[cardToken], nil
}

func (s *MemoryAttemptStore) Increment(_ context.Context, cardToken string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts[cardToken]++

	return s.attempts[cardToken], nil
}

func (s *MemoryAttemptStore) Reset(_ context.Context, cardToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.attempts, cardToken)

	return nil
}
