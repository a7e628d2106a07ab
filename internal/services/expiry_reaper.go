package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPendingExpiry is how long a session may wait for payment.
const DefaultPendingExpiry = 15 * time.Minute

const reapTimeout = 10 * time.Second

type pendingSessionStore interface {
	DeleteIfPending(ctx context.Context, sessionID int64) (bool, error)
	DeleteExpiredPending(ctx context.Context, window time.Duration) (int64, error)
}

type stopper interface {
	Stop() bool
}

// ExpiryReaper deletes sessions whose payment never arrived. Each reservation
// arms a one-shot timer; settlement disarms it. Timers do not survive a
// restart, so Run also sweeps every PENDING row older than the window.
type ExpiryReaper struct {
	store     pendingSessionStore
	delay     time.Duration
	logger    zerolog.Logger
	afterFunc func(d time.Duration, f func()) stopper

	mu     sync.Mutex
	timers map[int64]stopper
}

func NewExpiryReaper(store pendingSessionStore, delay time.Duration, logger zerolog.Logger) *ExpiryReaper {
	if delay <= 0 {
		delay = DefaultPendingExpiry
	}
	return &ExpiryReaper{
		store:  store,
		delay:  delay,
		logger: logger,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
		timers: make(map[int64]stopper),
	}
}

func (r *ExpiryReaper) Delay() time.Duration {
	return r.delay
}

// Arm schedules the expiry check for a session. Arming an armed session is a no-op.
func (r *ExpiryReaper) Arm(sessionID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.timers[sessionID]; ok {
		return
	}
	r.timers[sessionID] = r.afterFunc(r.delay, func() {
		r.reap(sessionID)
	})
}

// Disarm cancels a pending expiry check, if any.
func (r *ExpiryReaper) Disarm(sessionID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.timers[sessionID]; ok {
		t.Stop()
		delete(r.timers, sessionID)
	}
}

// Armed reports how many expiry checks are scheduled.
func (r *ExpiryReaper) Armed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

func (r *ExpiryReaper) reap(sessionID int64) {
	r.mu.Lock()
	delete(r.timers, sessionID)
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), reapTimeout)
	defer cancel()

	deleted, err := r.store.DeleteIfPending(ctx, sessionID)
	if err != nil {
		// No retry: Sweep picks the row up later.
		r.logger.Error().Err(err).Int64("session_id", sessionID).Msg("expire pending session")
		return
	}
	if deleted {
		expiredSessionsTotal.WithLabelValues("timer").Inc()
		r.logger.Info().Int64("session_id", sessionID).Msg("pending session expired")
	}
}

// Sweep deletes every PENDING session whose payment window has closed. Age
// is measured on the database clock.
func (r *ExpiryReaper) Sweep(ctx context.Context) (int64, error) {
	n, err := r.store.DeleteExpiredPending(ctx, r.delay)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		expiredSessionsTotal.WithLabelValues("sweep").Add(float64(n))
		r.logger.Info().Int64("count", n).Dur("window", r.delay).Msg("swept expired pending sessions")
	}
	return n, nil
}

// Run sweeps on every tick until ctx is done, then stops all armed timers.
func (r *ExpiryReaper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer r.Stop()

	if _, err := r.Sweep(ctx); err != nil {
		r.logger.Error().Err(err).Msg("initial expiry sweep")
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error().Err(err).Msg("expiry sweep")
			}
		}
	}
}

func (r *ExpiryReaper) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
}
