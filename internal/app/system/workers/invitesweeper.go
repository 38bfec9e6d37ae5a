// internal/app/system/workers/invitesweeper.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/remixhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// SweepStore is the slice of the collaboration store the sweeper needs.
type SweepStore interface {
	PullExpiredInvites(ctx context.Context, now time.Time) (int64, error)
	ReconcileForkCounts(ctx context.Context) (int, error)
}

// InviteSweeper is a background worker that drops expired invites and
// re-derives fork counters that drifted when a fork write ran without a
// transaction.
type InviteSweeper struct {
	store    SweepStore
	audit    *auditlog.Logger
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewInviteSweeper creates a sweeper that runs every interval.
func NewInviteSweeper(store SweepStore, audit *auditlog.Logger, logger *zap.Logger, interval time.Duration) *InviteSweeper {
	return &InviteSweeper{
		store:    store,
		audit:    audit,
		log:      logger,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *InviteSweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("invite sweeper started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call
// more than once.
func (w *InviteSweeper) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("invite sweeper stopped")
	})
}

func (w *InviteSweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep(context.Background())
		}
	}
}

// Sweep runs one pass. Failures are logged; the next tick tries again.
func (w *InviteSweeper) Sweep(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	pulled, err := w.store.PullExpiredInvites(ctx, w.now())
	if err != nil {
		w.log.Error("failed to pull expired invites", zap.Error(err))
	} else if pulled > 0 {
		w.log.Info("removed expired invites", zap.Int64("collaborations", pulled))
	}

	fixed, err := w.store.ReconcileForkCounts(ctx)
	if err != nil {
		w.log.Error("failed to reconcile fork counters", zap.Error(err))
		return
	}
	if fixed > 0 {
		w.log.Warn("corrected drifted fork counters", zap.Int("collaborations", fixed))
		w.audit.ForkCountsReconciled(ctx, fixed)
	}
}
