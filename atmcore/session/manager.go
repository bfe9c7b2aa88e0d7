package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/LerianStudio/lib-atmcore/atmcore"
	"github.com/LerianStudio/lib-atmcore/atmcore/errgroup"
	"github.com/LerianStudio/lib-atmcore/atmcore/log"
)

const (
	// tokenBytes is the entropy of a session token before encoding.
	tokenBytes = 32

	// DefaultRetention is how long terminal records stay observable before
	// the sweep removes them.
	DefaultRetention = time.Hour
)

// Manager owns the session lifecycle: creation, validation, sliding-window
// extension, termination and the periodic sweep. All operations are safe for
// concurrent use; unrelated sessions never share a lock.
type Manager struct {
	store     *store
	timeout   time.Duration
	retention time.Duration
	now       func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithRetention overrides how long terminal records are kept before the
// sweep removes them.
func WithRetention(d time.Duration) Option {
	return func(m *Manager) {
		m.retention = d
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager builds a Manager whose sessions expire after timeout of
// inactivity.
func NewManager(timeout time.Duration, opts ...Option) *Manager {
	m := &Manager{
		store:     newStore(),
		timeout:   timeout,
		retention: DefaultRetention,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Create mints a session for the card on the given ATM. The token is 256
// bits of cryptographically strong randomness, URL-safe encoded.
func (m *Manager) Create(ctx context.Context, cardToken, atmCode string) (Session, error) {
	token, err := newToken()
	if err != nil {
		return Session{}, fmt.Errorf("generating session token: %w", err)
	}

	now := m.now()
	sess := &Session{
		Token:          token,
		CardToken:      cardToken,
		ATMCode:        atmCode,
		Status:         StatusActive,
		StartedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(m.timeout),
		Timeout:        m.timeout,
	}

	m.store.put(sess)

	logger := atmcore.NewLoggerFromContext(ctx)
	logger.Log(ctx, log.LevelDebug, "session created",
		log.SessionToken(token),
		log.CardToken(cardToken),
		log.String("atm_code", atmCode),
	)

	return *sess, nil
}

// Validate reports whether the token names a usable session right now.
func (m *Manager) Validate(_ context.Context, token string) bool {
	sess, ok := m.store.get(token)
	if !ok {
		return false
	}

	return sess.IsActive(m.now())
}

// Get returns a snapshot of the session record, terminal or not.
func (m *Manager) Get(_ context.Context, token string) (Session, error) {
	sess, ok := m.store.get(token)
	if !ok {
		return Session{}, ErrNotFound
	}

	return sess, nil
}

// Extend slides the expiry window and increments the call counter. It fails
// without side effects when the session is absent or no longer active; a
// terminal session is never revived.
func (m *Manager) Extend(_ context.Context, token string) (Session, error) {
	now := m.now()

	sess, ok := m.store.update(token, func(s *Session) bool {
		if !s.IsActive(now) {
			return false
		}

		s.LastActivityAt = now
		s.ExpiresAt = now.Add(s.Timeout)
		s.CallCount++

		return true
	})
	if !ok {
		if sess.Token == "" {
			return Session{}, ErrNotFound
		}

		return Session{}, fmt.Errorf("%w: status %s", ErrNotActive, sess.Status)
	}

	return sess, nil
}

// Terminate closes the session with a human-readable reason. Already
// terminal sessions are left untouched and reported via ErrNotActive.
func (m *Manager) Terminate(ctx context.Context, token, reason string) error {
	now := m.now()

	sess, ok := m.store.update(token, func(s *Session) bool {
		if s.Status != StatusActive {
			return false
		}

		s.Status = StatusTerminated
		s.TerminatedAt = now
		s.TerminationReason = reason

		return true
	})
	if !ok {
		if sess.Token == "" {
			return ErrNotFound
		}

		return fmt.Errorf("%w: status %s", ErrNotActive, sess.Status)
	}

	logger := atmcore.NewLoggerFromContext(ctx)
	logger.Log(ctx, log.LevelInfo, "session terminated",
		log.SessionToken(token),
		log.String("reason", reason),
	)

	return nil
}

// TerminateAllForCard closes every active session bound to the card, fanning
// out across shards. It returns how many sessions were terminated. Used for
// security events such as a card block, where all of the card's windows must
// close at once regardless of which ATM they are on.
func (m *Manager) TerminateAllForCard(ctx context.Context, cardToken, reason string) (int, error) {
	now := m.now()

	var terminated atomic.Int64

	group, _ := errgroup.WithContext(ctx)

	for i := 0; i < shardCount; i++ {
		group.Go(func() error {
			n := m.store.sweepShard(i, now, func(s *Session, _ time.Time) bool {
				if s.CardToken != cardToken || s.Status != StatusActive {
					return false
				}

				s.Status = StatusTerminated
				s.TerminatedAt = now
				s.TerminationReason = reason

				return true
			})

			terminated.Add(int64(n))

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return int(terminated.Load()), err
	}

	count := int(terminated.Load())
	if count > 0 {
		logger := atmcore.NewLoggerFromContext(ctx)
		logger.Log(ctx, log.LevelInfo, "terminated all sessions for card",
			log.CardToken(cardToken),
			log.Int("count", count),
			log.String("reason", reason),
		)
	}

	return count, nil
}

// Sweep marks every active session whose expiry has passed as Expired, then
// removes terminal records older than the retention window. It returns how
// many sessions were newly expired.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.now()
	cutoff := now.Add(-m.retention)

	expired := 0
	removed := 0

	for i := 0; i < shardCount; i++ {
		expired += m.store.sweepShard(i, now, func(s *Session, at time.Time) bool {
			if s.Status != StatusActive || at.Before(s.ExpiresAt) {
				return false
			}

			s.Status = StatusExpired

			return true
		})

		removed += m.store.removeShard(i, func(s *Session) bool {
			switch s.Status {
			case StatusExpired:
				return s.ExpiresAt.Before(cutoff)
			case StatusTerminated, StatusInvalid:
				return s.TerminatedAt.Before(cutoff) && !s.TerminatedAt.IsZero()
			default:
				return false
			}
		})
	}

	if expired > 0 || removed > 0 {
		logger := atmcore.NewLoggerFromContext(ctx)
		logger.Log(ctx, log.LevelDebug, "session sweep finished",
			log.Int("expired", expired),
			log.Int("removed", removed),
		)
	}

	return expired
}

// ActiveCount returns how many sessions are currently usable.
func (m *Manager) ActiveCount() int {
	now := m.now()
	count := 0

	m.store.eachShard(func(sessions map[string]*Session) {
		for _, sess := range sessions {
			if sess.IsActive(now) {
				count++
			}
		}
	})

	return count
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
