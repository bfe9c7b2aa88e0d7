package cash

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	// ErrATMNotFound is returned when no inventory exists for the ATM code.
	ErrATMNotFound = errors.New("atm inventory not found")

	// ErrInsufficientStock is returned when a dispense would draw more notes
	// of some denomination than the ATM holds.
	ErrInsufficientStock = errors.New("insufficient notes in inventory")
)

// Slot holds the state of one denomination in an ATM's cassette.
type Slot struct {
	Count   int  `json:"count"`
	Enabled bool `json:"enabled"`
}

// Service is the inventory collaborator consumed by the cash-availability
// validation step. Denominations are note face values in minor currency
// units; disabled denominations are excluded from every read.
type Service interface {
	// AvailableDenominations returns the enabled denominations with stock
	// remaining, keyed by note value.
	AvailableDenominations(ctx context.Context, atmCode string) (map[int64]int, error)

	// TotalAvailable returns the sum of value held across enabled slots.
	TotalAvailable(ctx context.Context, atmCode string) (decimal.Decimal, error)

	// ApplyDispense subtracts the plan's note counts from the inventory.
	ApplyDispense(ctx context.Context, atmCode string, plan map[int64]int) error

	// Refill adds notes to the inventory, creating slots as needed.
	Refill(ctx context.Context, atmCode string, notes map[int64]int) error
}

// MemoryService is an in-memory Service keyed by ATM code, safe for
// concurrent use.
type MemoryService struct {
	mu   sync.RWMutex
	atms map[string]map[int64]Slot
}

// NewMemoryService returns an empty in-memory inventory.
func NewMemoryService() *MemoryService {
	return &MemoryService{atms: make(map[string]map[int64]Slot)}
}

// Load replaces the full slot map for one ATM.
func (s *MemoryService) Load(atmCode string, slots map[int64]Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make(map[int64]Slot, len(slots))
	for denom, slot := range slots {
		copied[denom] = slot
	}

	s.atms[atmCode] = copied
}

// SetEnabled flips the enabled flag on one denomination.
func (s *MemoryService) SetEnabled(atmCode string, denomination int64, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, ok := s.atms[atmCode]
	if !ok {
		return ErrATMNotFound
	}

	slot, ok := slots[denomination]
	if !ok {
		return fmt.Errorf("%w: denomination %d", ErrATMNotFound, denomination)
	}

	slot.Enabled = enabled
	slots[denomination] = slot

	return nil
}

func (s *MemoryService) AvailableDenominations(_ context.Context, atmCode string) (map[int64]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slots, ok := s.atms[atmCode]
	if !ok {
		return nil, ErrATMNotFound
	}

	available := make(map[int64]int)

	for denom, slot := range slots {
		if slot.Enabled && slot.Count > 0 {
			available[denom] = slot.Count
		}
	}

	return available, nil
}

func (s *MemoryService) TotalAvailable(_ context.Context, atmCode string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slots, ok := s.atms[atmCode]
	if !ok {
		return decimal.Zero, ErrATMNotFound
	}

	total := decimal.Zero

	for denom, slot := range slots {
		if slot.Enabled {
			total = total.Add(decimal.NewFromInt(denom).Mul(decimal.NewFromInt(int64(slot.Count))))
		}
	}

	return total, nil
}

func (s *MemoryService) ApplyDispense(_ context.Context, atmCode string, plan map[int64]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, ok := s.atms[atmCode]
	if !ok {
		return ErrATMNotFound
	}

	// Verify the whole plan before mutating anything.
	for denom, count := range plan {
		slot, ok := slots[denom]
		if !ok || !slot.Enabled || slot.Count < count {
			return fmt.Errorf("%w: denomination %d, requested %d", ErrInsufficientStock, denom, count)
		}
	}

	for denom, count := range plan {
		slot := slots[denom]
		slot.Count -= count
		slots[denom] = slot
	}

	return nil
}

func (s *MemoryService) Refill(_ context.Context, atmCode string, notes map[int64]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, ok := s.atms[atmCode]
	if !ok {
		slots = make(map[int64]Slot)
		s.atms[atmCode] = slots
	}

	for denom, count := range notes {
		if count < 0 {
			return fmt.Errorf("%w: negative refill for denomination %d", ErrInvalidAmount, denom)
		}

		slot, ok := slots[denom]
		if !ok {
			slot = Slot{Enabled: true}
		}

		slot.Count += count
		slots[denom] = slot
	}

	return nil
}
