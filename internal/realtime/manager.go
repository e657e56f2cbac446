package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sethvargo/go-retry"
)

// channelName is the single NOTIFY channel all row triggers write to.
const channelName = "trip_changes"

// Manager owns at most one realtime channel at a time, scoped to the
// current session's active trip. The session bootstrap is the only
// component that should create or tear it down.
type Manager struct {
	dsn string
	log *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager constructs a Manager that connects to the database at dsn.
func NewManager(dsn string, log *slog.Logger) *Manager {
	return &Manager{dsn: dsn, log: log}
}

// Subscribe opens the logical channel for tripID and invokes onChange for
// every delivered event. The manager's only obligation is delivery; what to
// do about a change (a full re-hydrate, in this design) is the caller's
// policy. Any previously open channel is torn down first, so at most one
// channel exists at a time.
//
// The returned unsubscribe function is idempotent and safe to call when no
// channel is open.
func (m *Manager) Subscribe(tripID uuid.UUID, onChange func(Event)) func() {
	m.Unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	m.mu.Lock()
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	go m.listen(ctx, done, tripID, onChange)

	return m.Unsubscribe
}

// Unsubscribe tears down the current channel, if any, and waits for the
// listener goroutine to exit.
func (m *Manager) Unsubscribe() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// listen holds a dedicated connection in LISTEN mode and forwards
// notifications until ctx is cancelled. Connection failures reconnect with
// fibonacci backoff; events arriving while disconnected are missed, which
// is acceptable because every delivery triggers a full re-hydrate anyway
// and the next successful one repairs the gap.
func (m *Manager) listen(ctx context.Context, done chan<- struct{}, tripID uuid.UUID, onChange func(Event)) {
	defer close(done)

	for ctx.Err() == nil {
		// Fresh backoff per round so a long-lived healthy connection does
		// not inherit exhausted retry budget from a flaky start.
		backoff := retry.WithMaxDuration(5*time.Minute, retry.NewFibonacci(500*time.Millisecond))

		_ = retry.Do(ctx, backoff, func(ctx context.Context) error {
			conn, err := pgx.Connect(ctx, m.dsn)
			if err != nil {
				m.log.Warn("realtime: connect failed", "error", err)
				return retry.RetryableError(err)
			}
			defer conn.Close(context.Background())

			if _, err := conn.Exec(ctx, "LISTEN "+channelName); err != nil {
				m.log.Warn("realtime: listen failed", "error", err)
				return retry.RetryableError(err)
			}
			m.log.Info("realtime: subscribed", "trip_id", tripID)

			for {
				notification, err := conn.WaitForNotification(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					m.log.Warn("realtime: connection lost", "error", err)
					return retry.RetryableError(err)
				}

				ev, err := parseEvent(notification.Payload)
				if err != nil {
					m.log.Warn("realtime: bad payload", "error", err)
					continue
				}
				if shouldDeliver(tripID, ev) {
					onChange(ev)
				}
			}
		})
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		m.log.Info("realtime: unsubscribed", "trip_id", tripID)
	}
}
