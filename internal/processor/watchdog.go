package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/siteaudit/internal/domain"
	"github.com/jonesrussell/siteaudit/internal/logger"
)

// WatchdogStore is the watchdog's view of the job store.
type WatchdogStore interface {
	ListProcessing(ctx context.Context) ([]*domain.Job, error)
	Fail(ctx context.Context, id, errMsg string, partial *domain.SiteReport) error
}

// defaultWatchdogSchedule sweeps once a minute.
const defaultWatchdogSchedule = "@every 1m"

// sweepTimeout bounds one watchdog sweep.
const sweepTimeout = 30 * time.Second

// Watchdog fails jobs stuck in processing without progress. A job whose
// record has not been touched within staleAfter is presumed orphaned
// (crashed worker, lost connection) and is failed rather than silently
// retried, so the status endpoint always reaches a terminal state.
type Watchdog struct {
	store      WatchdogStore
	staleAfter time.Duration
	cron       *cron.Cron
	logger     logger.Interface
}

// NewWatchdog creates a Watchdog sweeping on the given cron schedule.
// An empty schedule uses the default of once a minute.
func NewWatchdog(store WatchdogStore, staleAfter time.Duration, schedule string, log logger.Interface) (*Watchdog, error) {
	if schedule == "" {
		schedule = defaultWatchdogSchedule
	}

	w := &Watchdog{
		store:      store,
		staleAfter: staleAfter,
		cron:       cron.New(),
		logger:     log.WithComponent("watchdog"),
	}

	if _, err := w.cron.AddFunc(schedule, w.sweep); err != nil {
		return nil, fmt.Errorf("watchdog: invalid schedule %q: %w", schedule, err)
	}

	return w, nil
}

// Start begins the sweep schedule.
func (w *Watchdog) Start() {
	w.cron.Start()
	w.logger.Info("watchdog started", "stale_after", w.staleAfter.String())
}

// Stop halts the schedule and waits for a running sweep to finish.
func (w *Watchdog) Stop() {
	<-w.cron.Stop().Done()
}

// sweep fails every processing job whose record went stale.
func (w *Watchdog) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	jobs, err := w.store.ListProcessing(ctx)
	if err != nil {
		w.logger.Error("watchdog sweep failed", "error", err)
		return
	}

	for _, job := range jobs {
		idle := time.Since(job.UpdatedAt)
		if idle <= w.staleAfter {
			continue
		}

		msg := fmt.Sprintf("job stalled: no progress for %s", idle.Round(time.Second))
		w.logger.Warn("failing stalled job", "job_id", job.ID, "idle", idle.String())

		if failErr := w.store.Fail(ctx, job.ID, msg, nil); failErr != nil {
			w.logger.Error("failing stalled job failed", "job_id", job.ID, "error", failErr)
		}
	}
}
