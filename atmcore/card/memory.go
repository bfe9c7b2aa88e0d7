package card

import (
	"context"
	"sync"
)

// MemoryService is an in-memory Service implementation, keyed by card token.
// Safe for concurrent use.
type MemoryService struct {
	mu    sync.RWMutex
	cards map[string]Card
}

// Compile-time assertion: *MemoryService implements Service.
var _ Service = (*MemoryService)(nil)

// NewMemoryService creates an empty in-memory card service.
func NewMemoryService() *MemoryService {
	return &MemoryService{cards: make(map[string]Card)}
}

// Put inserts or replaces a card record.
func (s *MemoryService) Put(c Card) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cards[c.Token] = c
}

// CardByToken resolves a card by token.
func (s *MemoryService) CardByToken(_ context.Context, token string) (Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cards[token]
	if !ok {
		return Card{}, ErrNotFound
	}

	return c, nil
}

// UpdateStatus persists a card status transition.
func (s *MemoryService) UpdateStatus(_ context.Context, token string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cards[token]
	if !ok {
		return ErrNotFound
	}

	c.Status = status
	s.cards[token] = c

	return nil
}

// Block persists a security block on the card.
func (s *MemoryService) Block(ctx context.Context, token string) error {
	return s.UpdateStatus(ctx, token, StatusBlocked)
}
