package auth

import (
	"context"
	"sync"
	"time"

	"github.com/LerianStudio/lib-atmcore/atmcore/card"
)

// Request carries one authentication attempt through the pipeline. Steps
// enrich Security as they pass; the struct is never shared across requests.
type Request struct {
	CardToken string
	PIN       string
	ATMCode   string
	ClientIP  string
	UserAgent string

	Security SecurityContext
}

// SecurityContext is the typed state the authentication steps build up,
// replacing an untyped key-value bag with named fields.
type SecurityContext struct {
	Card              *card.Card
	Brand             string
	IIN               string
	FailedAttempts    int
	RemainingAttempts int
	PINAuthenticated  bool
	AuthenticatedAt   time.Time
}

// Authenticator verifies a PIN against whatever holds the PIN truth (an HSM,
// an issuer switch). A false return with nil error is a wrong PIN; an error
// is an infrastructure failure.
type Authenticator interface {
	Authenticate(ctx context.Context, cardToken, pin string) (bool, error)
}

// MemoryAuthenticator verifies PINs against an in-memory table.
type MemoryAuthenticator struct {
	mu   sync.RWMutex
	pins map[string]string
}

// NewMemoryAuthenticator returns an empty in-memory PIN verifier.
func NewMemoryAuthenticator() *MemoryAuthenticator {
	return &MemoryAuthenticator{pins: make(map[string]string)}
}

// SetPIN registers the expected PIN for a card token.
func (a *MemoryAuthenticator) SetPIN(cardToken, pin string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pins[cardToken] = pin
}

func (a *MemoryAuthenticator) Authenticate(_ context.Context, cardToken, pin string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	expected, ok := a.pins[cardToken]

	return ok && expected == pin, nil
}
