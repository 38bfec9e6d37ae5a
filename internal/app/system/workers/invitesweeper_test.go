package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeStore struct {
	mu       sync.Mutex
	pulls    []time.Time
	recounts int
	pullErr  error
	fixed    int
}

func (f *fakeStore) PullExpiredInvites(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls = append(f.pulls, now)
	return 2, f.pullErr
}

func (f *fakeStore) ReconcileForkCounts(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recounts++
	return f.fixed, nil
}

func (f *fakeStore) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pulls), f.recounts
}

func TestSweep_PullsAndReconciles(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store := &fakeStore{fixed: 1}
	w := NewInviteSweeper(store, nil, zap.New(core), time.Minute)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	w.Sweep(context.Background())

	if pulls, recounts := store.calls(); pulls != 1 || recounts != 1 {
		t.Fatalf("pulls=%d recounts=%d", pulls, recounts)
	}
	if !store.pulls[0].Equal(now) {
		t.Errorf("swept with %v, want %v", store.pulls[0], now)
	}
	if logs.FilterMessage("removed expired invites").Len() != 1 {
		t.Error("expected expired-invite log")
	}
	if logs.FilterMessage("corrected drifted fork counters").Len() != 1 {
		t.Error("expected reconcile log")
	}
}

func TestSweep_PullFailureStillReconciles(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store := &fakeStore{pullErr: errors.New("boom")}
	w := NewInviteSweeper(store, nil, zap.New(core), time.Minute)

	w.Sweep(context.Background())

	if _, recounts := store.calls(); recounts != 1 {
		t.Errorf("reconcile skipped after pull failure")
	}
	if logs.FilterMessage("failed to pull expired invites").Len() != 1 {
		t.Error("expected error log")
	}
}

func TestStartStop(t *testing.T) {
	store := &fakeStore{}
	w := NewInviteSweeper(store, nil, zap.NewNop(), 5*time.Millisecond)
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if pulls, _ := store.calls(); pulls > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("sweeper never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()
	w.Stop()

	after, _ := store.calls()
	time.Sleep(20 * time.Millisecond)
	if n, _ := store.calls(); n != after {
		t.Errorf("sweeper kept running after Stop: %d -> %d", after, n)
	}
}
