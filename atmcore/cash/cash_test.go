//go:build unit

package cash

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountPolicy_Validate(t *testing.T) {
	t.Parallel()

	policy := NewAmountPolicy(
		decimal.NewFromInt(100),
		decimal.NewFromInt(20000),
		decimal.NewFromInt(100),
	)

	tests := []struct {
		name    string
		amount  int64
		wantErr bool
	}{
		{name: "minimum amount", amount: 100, wantErr: false},
		{name: "maximum amount", amount: 20000, wantErr: false},
		{name: "typical amount", amount: 4300, wantErr: false},
		{name: "zero", amount: 0, wantErr: true},
		{name: "negative", amount: -500, wantErr: true},
		{name: "below minimum", amount: 50, wantErr: true},
		{name: "above maximum", amount: 20100, wantErr: true},
		{name: "not a step multiple", amount: 150, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := policy.Validate(decimal.NewFromInt(tt.amount))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDistribute_ExactPlan(t *testing.T) {
	t.Parallel()

	stock := map[int64]int{2000: 5, 500: 10, 100: 50}

	plan, err := Distribute(4300, stock)
	require.NoError(t, err)

	assert.Equal(t, map[int64]int{2000: 2, 100: 3}, plan)
}

func TestDistribute_SubstitutesWhenGreedyDeadEnds(t *testing.T) {
	t.Parallel()

	// Largest-first takes one 2000 note and strands 1000 with only 600
	// notes left; the valid plan skips the 2000 entirely.
	stock := map[int64]int{2000: 1, 600: 5}

	plan, err := Distribute(3000, stock)
	require.NoError(t, err)

	assert.Equal(t, map[int64]int{600: 5}, plan)
}

func TestDistribute_MinimizesNoteCount(t *testing.T) {
	t.Parallel()

	stock := map[int64]int{500: 10, 200: 10, 100: 10}

	plan, err := Distribute(900, stock)
	require.NoError(t, err)

	assert.Equal(t, map[int64]int{500: 1, 200: 2}, plan)
}

func TestDistribute_RespectsStock(t *testing.T) {
	t.Parallel()

	stock := map[int64]int{500: 1, 100: 3}

	_, err := Distribute(1000, stock)
	require.ErrorIs(t, err, ErrCannotDispense)
}

func TestDistribute_Infeasible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		amount int64
		stock  map[int64]int
	}{
		{name: "no stock", amount: 100, stock: nil},
		{name: "amount below smallest note", amount: 50, stock: map[int64]int{100: 10}},
		{name: "no exact combination", amount: 300, stock: map[int64]int{200: 5}},
		{name: "non-positive amount", amount: 0, stock: map[int64]int{100: 10}},
		{name: "amount beyond bound", amount: maxDistributeAmount + 100, stock: map[int64]int{100: 1 << 30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Distribute(tt.amount, tt.stock)
			require.ErrorIs(t, err, ErrCannotDispense)
		})
	}
}

func TestMemoryService_Inventory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewMemoryService()
	svc.Load("ATM-01", map[int64]Slot{
		2000: {Count: 5, Enabled: true},
		500:  {Count: 10, Enabled: true},
		100:  {Count: 50, Enabled: false},
	})

	available, err := svc.AvailableDenominations(ctx, "ATM-01")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{2000: 5, 500: 10}, available)

	total, err := svc.TotalAvailable(ctx, "ATM-01")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(15000)), "disabled slots excluded, got %s", total)

	_, err = svc.AvailableDenominations(ctx, "ATM-99")
	require.ErrorIs(t, err, ErrATMNotFound)
}

func TestMemoryService_ApplyDispense(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewMemoryService()
	svc.Load("ATM-01", map[int64]Slot{
		2000: {Count: 2, Enabled: true},
		100:  {Count: 3, Enabled: true},
	})

	require.NoError(t, svc.ApplyDispense(ctx, "ATM-01", map[int64]int{2000: 2, 100: 3}))

	available, err := svc.AvailableDenominations(ctx, "ATM-01")
	require.NoError(t, err)
	assert.Empty(t, available)

	// Over-drawing fails without mutating any slot.
	svc.Load("ATM-02", map[int64]Slot{500: {Count: 1, Enabled: true}})
	err = svc.ApplyDispense(ctx, "ATM-02", map[int64]int{500: 2})
	require.ErrorIs(t, err, ErrInsufficientStock)

	available, err = svc.AvailableDenominations(ctx, "ATM-02")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{500: 1}, available)
}

func TestMemoryService_Refill(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewMemoryService()

	require.NoError(t, svc.Refill(ctx, "ATM-01", map[int64]int{200: 20}))
	require.NoError(t, svc.Refill(ctx, "ATM-01", map[int64]int{200: 5, 100: 10}))

	available, err := svc.AvailableDenominations(ctx, "ATM-01")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{200: 25, 100: 10}, available)
}
