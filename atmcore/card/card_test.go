//go:build unit

package card

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCard_IsExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		month   int
		year    int
		expired bool
	}{
		{name: "future year", month: 1, year: 2030, expired: false},
		{name: "current month", month: 6, year: 2026, expired: false},
		{name: "previous month", month: 5, year: 2026, expired: true},
		{name: "previous year", month: 12, year: 2025, expired: true},
		{name: "no expiry recorded", month: 0, year: 0, expired: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := Card{ExpiryMonth: tc.month, ExpiryYear: tc.year}
			assert.Equal(t, tc.expired, c.IsExpired(now))
		})
	}
}

func TestMemoryService_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewMemoryService()

	_, err := svc.CardByToken(ctx, "tok-missing")
	require.ErrorIs(t, err, ErrNotFound)

	svc.Put(Card{Token: "tok-1", Brand: "VISA", Status: StatusActive})

	c, err := svc.CardByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, c.IsActive())

	require.NoError(t, svc.Block(ctx, "tok-1"))

	c, err = svc.CardByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, c.Status)
	assert.False(t, c.IsActive())

	require.ErrorIs(t, svc.UpdateStatus(ctx, "tok-missing", StatusActive), ErrNotFound)
}
