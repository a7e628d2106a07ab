package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeTimer struct {
	delay   time.Duration
	fire    func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

type fakeScheduler struct {
	timers []*fakeTimer
}

func (s *fakeScheduler) afterFunc(d time.Duration, f func()) stopper {
	t := &fakeTimer{delay: d, fire: f}
	s.timers = append(s.timers, t)
	return t
}

type fakePendingSession struct {
	status    string
	createdAt time.Time
}

// fakePendingStore ages sessions against its own clock, the way the database
// compares created_at with NOW().
type fakePendingStore struct {
	mu        sync.Mutex
	now       time.Time
	sessions  map[int64]*fakePendingSession
	deleteErr error
	deleted   []int64
	windows   []time.Duration
}

func newFakePendingStore() *fakePendingStore {
	return &fakePendingStore{now: time.Now(), sessions: make(map[int64]*fakePendingSession)}
}

func (s *fakePendingStore) DeleteIfPending(_ context.Context, sessionID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return false, s.deleteErr
	}
	session, ok := s.sessions[sessionID]
	if !ok || session.status != "PENDING" {
		return false, nil
	}
	delete(s.sessions, sessionID)
	s.deleted = append(s.deleted, sessionID)
	return true, nil
}

func (s *fakePendingStore) DeleteExpiredPending(_ context.Context, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = append(s.windows, window)
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	cutoff := s.now.Add(-window)
	var n int64
	for id, session := range s.sessions {
		if session.status == "PENDING" && session.createdAt.Before(cutoff) {
			delete(s.sessions, id)
			s.deleted = append(s.deleted, id)
			n++
		}
	}
	return n, nil
}

func newTestReaper(store pendingSessionStore) (*ExpiryReaper, *fakeScheduler) {
	scheduler := &fakeScheduler{}
	reaper := NewExpiryReaper(store, 15*time.Minute, zerolog.Nop())
	reaper.afterFunc = scheduler.afterFunc
	return reaper, scheduler
}

func TestExpiryReaperDeletesUnpaidSessionWhenTimerFires(t *testing.T) {
	store := newFakePendingStore()
	store.sessions[1] = &fakePendingSession{status: "PENDING"}
	reaper, scheduler := newTestReaper(store)

	reaper.Arm(1)
	if len(scheduler.timers) != 1 {
		t.Fatalf("expected one timer, got %d", len(scheduler.timers))
	}
	if scheduler.timers[0].delay != 15*time.Minute {
		t.Fatalf("expected 15m delay, got %s", scheduler.timers[0].delay)
	}

	scheduler.timers[0].fire()

	if _, ok := store.sessions[1]; ok {
		t.Fatalf("expected pending session to be deleted")
	}
	if reaper.Armed() != 0 {
		t.Fatalf("expected no armed timers after firing, got %d", reaper.Armed())
	}
}

func TestExpiryReaperKeepsSettledSession(t *testing.T) {
	store := newFakePendingStore()
	store.sessions[2] = &fakePendingSession{status: "PENDING"}
	reaper, scheduler := newTestReaper(store)

	reaper.Arm(2)
	store.sessions[2].status = "RESERVED"
	scheduler.timers[0].fire()

	if _, ok := store.sessions[2]; !ok {
		t.Fatalf("expected reserved session to survive the expiry check")
	}
}

func TestExpiryReaperArmIsIdempotent(t *testing.T) {
	reaper, scheduler := newTestReaper(newFakePendingStore())

	reaper.Arm(3)
	reaper.Arm(3)

	if len(scheduler.timers) != 1 {
		t.Fatalf("expected a single timer per session, got %d", len(scheduler.timers))
	}
}

func TestExpiryReaperDisarmStopsTimer(t *testing.T) {
	reaper, scheduler := newTestReaper(newFakePendingStore())

	reaper.Arm(4)
	reaper.Disarm(4)

	if !scheduler.timers[0].stopped {
		t.Fatalf("expected timer to be stopped")
	}
	if reaper.Armed() != 0 {
		t.Fatalf("expected no armed timers, got %d", reaper.Armed())
	}
	reaper.Disarm(4)
}

func TestExpiryReaperFailedDeleteIsNotRetried(t *testing.T) {
	store := newFakePendingStore()
	store.sessions[5] = &fakePendingSession{status: "PENDING"}
	store.deleteErr = errors.New("db down")
	reaper, scheduler := newTestReaper(store)

	reaper.Arm(5)
	scheduler.timers[0].fire()

	if len(scheduler.timers) != 1 {
		t.Fatalf("expected no retry timer, got %d timers", len(scheduler.timers))
	}
	if _, ok := store.sessions[5]; !ok {
		t.Fatalf("expected session to remain after failed delete")
	}
}

func TestExpiryReaperSweepBoundary(t *testing.T) {
	createdAt := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name        string
		elapsed     time.Duration
		status      string
		wantDeleted bool
	}{
		{name: "pending at 14:59", elapsed: 14*time.Minute + 59*time.Second, status: "PENDING", wantDeleted: false},
		{name: "pending at 15:01", elapsed: 15*time.Minute + time.Second, status: "PENDING", wantDeleted: true},
		{name: "reserved at 15:01", elapsed: 15*time.Minute + time.Second, status: "RESERVED", wantDeleted: false},
		{name: "reserved long after", elapsed: 3 * time.Hour, status: "RESERVED", wantDeleted: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakePendingStore()
			store.now = createdAt.Add(tc.elapsed)
			store.sessions[7] = &fakePendingSession{status: tc.status, createdAt: createdAt}
			reaper, _ := newTestReaper(store)

			n, err := reaper.Sweep(context.Background())
			if err != nil {
				t.Fatalf("Sweep: %v", err)
			}
			_, stillThere := store.sessions[7]
			if tc.wantDeleted && (stillThere || n != 1) {
				t.Fatalf("expected session to be swept, removed=%d", n)
			}
			if !tc.wantDeleted && (!stillThere || n != 0) {
				t.Fatalf("expected session to survive, removed=%d", n)
			}
		})
	}
}

func TestExpiryReaperSweepAgesRowsOnStoreClock(t *testing.T) {
	store := newFakePendingStore()
	dbNow := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	store.now = dbNow
	store.sessions[11] = &fakePendingSession{status: "PENDING", createdAt: dbNow.Add(-time.Minute)}
	reaper, _ := newTestReaper(store)

	// dbNow lags the process clock by months; only the store clock may count.
	n, err := reaper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected fresh session to survive, removed=%d", n)
	}
	if len(store.windows) != 1 || store.windows[0] != 15*time.Minute {
		t.Fatalf("expected the 15m window to be passed to the store, got %v", store.windows)
	}
}

func TestExpiryReaperStopClearsTimers(t *testing.T) {
	reaper, scheduler := newTestReaper(newFakePendingStore())
	reaper.Arm(8)
	reaper.Arm(9)

	reaper.Stop()

	for _, timer := range scheduler.timers {
		if !timer.stopped {
			t.Fatalf("expected every timer to be stopped")
		}
	}
	if reaper.Armed() != 0 {
		t.Fatalf("expected no armed timers, got %d", reaper.Armed())
	}
}

func TestExpiryReaperRunSweepsUntilCancelled(t *testing.T) {
	store := newFakePendingStore()
	store.sessions[10] = &fakePendingSession{status: "PENDING", createdAt: time.Now().Add(-time.Hour)}
	reaper := NewExpiryReaper(store, 15*time.Minute, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx, time.Hour)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		store.mu.Lock()
		_, ok := store.sessions[10]
		store.mu.Unlock()
		if !ok {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected initial sweep to delete the stale session")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
