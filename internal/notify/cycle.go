package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/talentdesk/expiry-engine/internal/alert"
)

// ErrCycleRunning is returned when a trigger arrives while a cycle is
// already in flight.
var ErrCycleRunning = errors.New("notification cycle already running")

// batchRunner is the slice of Dispatcher the orchestrator needs.
type batchRunner interface {
	DispatchThreshold(ctx context.Context, doc alert.DocumentType, thresholdDays int, today time.Time) (BatchResult, error)
}

// Orchestrator runs one full evaluation pass over every
// (document type, threshold) combination. Execution is single-flight within
// the process: overlapping triggers are rejected so two cycles never race on
// the same dedup flags. The atomic claim in the flag store covers the
// cross-process case a mutex cannot.
type Orchestrator struct {
	runner       batchRunner
	cycleTimeout time.Duration
	logger       *slog.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewOrchestrator creates an Orchestrator. cycleTimeout bounds one full pass;
// zero means no overall deadline.
func NewOrchestrator(runner batchRunner, cycleTimeout time.Duration, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		runner:       runner,
		cycleTimeout: cycleTimeout,
		logger:       logger,
		now:          time.Now,
	}
}

// Run executes one cycle and returns its summary. Per-employee failures are
// data in the summary, not errors; Run itself fails only when a cycle is
// already running. If the cycle deadline expires mid-pass the remaining
// thresholds are reported as skipped and resume on the next trigger.
func (o *Orchestrator) Run(ctx context.Context) (CycleSummary, error) {
	if !o.mu.TryLock() {
		o.logger.Warn("cycle trigger rejected: already running")
		return CycleSummary{}, ErrCycleRunning
	}
	defer o.mu.Unlock()

	start := o.now()
	summary := CycleSummary{StartedAt: start.UTC()}

	if o.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cycleTimeout)
		defer cancel()
	}

	o.logger.Info("Notification cycle started")

	for _, doc := range alert.DocumentTypes {
		for _, th := range alert.Thresholds(doc) {
			if ctx.Err() != nil {
				summary.BatchesSkipped++
				continue
			}

			res, err := o.runner.DispatchThreshold(ctx, doc, th.Days, start)
			if err != nil {
				// Eligibility read failed: the step is aborted, everything
				// it would have sent stays eligible for the next cycle.
				o.logger.Error("threshold batch aborted",
					"document", doc, "threshold_days", th.Days, "error", err)
			}

			summary.BatchesRun++
			summary.NotificationsSent += res.Sent
			summary.Failed += res.Failed
			summary.ErrorsByEmployee = append(summary.ErrorsByEmployee, res.Errors...)
			summary.Batches = append(summary.Batches, res)
		}
	}

	summary.Duration = o.now().Sub(start)
	summary.DurationMS = summary.Duration.Milliseconds()

	o.logger.Info("Notification cycle finished",
		"sent", summary.NotificationsSent,
		"failed", summary.Failed,
		"batches", summary.BatchesRun,
		"skipped", summary.BatchesSkipped,
		"duration", summary.Duration.Round(time.Millisecond))

	return summary, nil
}
