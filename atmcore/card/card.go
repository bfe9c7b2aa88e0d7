package card

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no card matches the supplied token.
var ErrNotFound = errors.New("card not found")

// Status represents the lifecycle state of a card.
type Status string

const (
	// StatusActive marks a card as usable.
	StatusActive Status = "ACTIVE"
	// StatusInactive marks a card as issued but not yet activated.
	StatusInactive Status = "INACTIVE"
	// StatusBlocked marks a card as blocked by a security event.
	StatusBlocked Status = "BLOCKED"
	// StatusExpired marks a card whose expiry has been observed and persisted.
	StatusExpired Status = "EXPIRED"
)

// Card is the PCI-storable projection of a payment card. Token is a surrogate
// reference to the real PAN kept in a secure vault.
type Card struct {
	Token       string `json:"token"`
	MaskedPAN   string `json:"maskedPan"`
	IIN         string `json:"iin"`
	Last4       string `json:"last4"`
	Brand       string `json:"brand"`
	ExpiryMonth int    `json:"expiryMonth"`
	ExpiryYear  int    `json:"expiryYear"`
	Status      Status `json:"status"`
}

// IsActive reports whether the card's persisted status allows use.
func (c Card) IsActive() bool {
	return c.Status == StatusActive
}

// IsExpired reports whether the card's expiry date has passed at the given
// time. A card expires at the end of its expiry month.
func (c Card) IsExpired(now time.Time) bool {
	if c.ExpiryYear == 0 {
		return false
	}

	// First instant of the month following expiry, in UTC.
	boundary := time.Date(c.ExpiryYear, time.Month(c.ExpiryMonth), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	return !now.Before(boundary)
}

// Service is the card lookup and status collaborator contract.
type Service interface {
	// CardByToken resolves a card by its vault token. Returns ErrNotFound
	// when no card matches.
	CardByToken(ctx context.Context, token string) (Card, error)

	// UpdateStatus persists a card status transition.
	UpdateStatus(ctx context.Context, token string, status Status) error

	// Block persists a security block on the card.
	Block(ctx context.Context, token string) error
}
