package session

import (
	"context"
	"sync"
	"time"
)

// Sweeper runs the manager's sweep on a fixed interval, independent of
// request traffic. Start it once; Stop blocks until the goroutine exits.
type Sweeper struct {
	manager  *Manager
	interval time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewSweeper builds a sweeper over the manager. The interval must be
// positive.
func NewSweeper(manager *Manager, interval time.Duration) *Sweeper {
	return &Sweeper{
		manager:  manager,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. The loop stops when ctx is canceled or
// Stop is called, whichever comes first. Subsequent calls are no-ops.
func (s *Sweeper) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)

		go s.loop(ctx)
	})
}

// Stop cancels the loop and waits for it to finish. Safe to call more than
// once, but only after Start.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}

		<-s.done
	})
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.manager.Sweep(ctx)
		}
	}
}
