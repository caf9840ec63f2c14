package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentdesk/expiry-engine/internal/alert"
)

// blockingRunner parks inside DispatchThreshold until released.
type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingRunner) DispatchThreshold(context.Context, alert.DocumentType, int, time.Time) (BatchResult, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return BatchResult{}, nil
}

func TestOrchestrator_SingleFlight(t *testing.T) {
	runner := &blockingRunner{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	orch := NewOrchestrator(runner, 0, testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := orch.Run(context.Background())
		assert.NoError(t, err)
	}()

	<-runner.started
	_, err := orch.Run(context.Background())
	assert.ErrorIs(t, err, ErrCycleRunning)

	close(runner.release)
	<-done

	// Once the first cycle finishes, triggers are accepted again.
	runner.release = make(chan struct{})
	close(runner.release)
	_, err = orch.Run(context.Background())
	assert.NoError(t, err)
}

// One cycle covers every (document type, threshold) combination: five visa
// tiers plus two each for passport and labour card.
func TestOrchestrator_CoversAllThresholds(t *testing.T) {
	flags := newFakeFlagStore()
	audit := newFakeAuditor()
	sender := newFakeSender()
	d := newTestDispatcher(flags, audit, sender)
	orch := NewOrchestrator(d, 0, testLogger())

	summary, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, summary.BatchesRun)
	assert.Equal(t, 0, summary.BatchesSkipped)
	assert.Equal(t, 0, summary.NotificationsSent)
}

// Running the cycle twice with unchanged data sends nothing the second time:
// the dedup claims from the first run filter everyone out.
func TestOrchestrator_SecondRunIsIdempotent(t *testing.T) {
	today := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	flags := newFakeFlagStore()
	audit := newFakeAuditor()
	sender := newFakeSender()

	flags.addEligible(alert.DocVisa, 7, testEmployee(1, today.AddDate(0, 0, 7)))
	flags.addEligible(alert.DocVisa, 30, testEmployee(2, today.AddDate(0, 0, 30)))
	flags.addEligible(alert.DocPassport, 60, testEmployee(3, today.AddDate(0, 0, 60)))

	d := newTestDispatcher(flags, audit, sender)
	orch := NewOrchestrator(d, 0, testLogger())
	orch.now = func() time.Time { return today }

	first, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, first.NotificationsSent)
	assert.Equal(t, 0, first.Failed)

	second, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.NotificationsSent)
	assert.Equal(t, 0, second.Failed)
	assert.Equal(t, 3, sender.sentCount())
}

// A cancelled trigger context skips every threshold: nothing runs, nothing
// is sent, and no dedup flag is claimed.
func TestOrchestrator_CancelledContextSkipsAllThresholds(t *testing.T) {
	today := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	flags := newFakeFlagStore()
	audit := newFakeAuditor()
	sender := newFakeSender()

	emp := testEmployee(1, today.AddDate(0, 0, 7))
	flags.addEligible(alert.DocVisa, 7, emp)

	d := newTestDispatcher(flags, audit, sender)
	orch := NewOrchestrator(d, 0, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := orch.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.BatchesRun)
	assert.Equal(t, 9, summary.BatchesSkipped)
	assert.Equal(t, 0, summary.NotificationsSent)
	assert.Equal(t, 0, sender.sentCount())
	assert.False(t, flags.claimed(emp.ID, alert.DocVisa, 7))
	assert.Equal(t, 0, len(audit.records))
}

// stalledRunner parks in DispatchThreshold until the cycle deadline fires.
type stalledRunner struct {
	calls int
}

func (s *stalledRunner) DispatchThreshold(ctx context.Context, _ alert.DocumentType, _ int, _ time.Time) (BatchResult, error) {
	s.calls++
	<-ctx.Done()
	return BatchResult{}, nil
}

// When the cycle deadline expires mid-pass, the remaining thresholds are
// counted as skipped rather than dispatched against a dead context.
func TestOrchestrator_DeadlineSkipsRemainingThresholds(t *testing.T) {
	runner := &stalledRunner{}
	orch := NewOrchestrator(runner, 20*time.Millisecond, testLogger())

	summary, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, 1, summary.BatchesRun)
	assert.Equal(t, 8, summary.BatchesSkipped)
}

// Per-employee failures surface in the summary, never as a Run error.
func TestOrchestrator_AggregatesEmployeeErrors(t *testing.T) {
	today := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	flags := newFakeFlagStore()
	audit := newFakeAuditor()
	sender := newFakeSender()

	bad := testEmployee(9, today.AddDate(0, 0, 15))
	flags.addEligible(alert.DocVisa, 15, bad, testEmployee(10, today.AddDate(0, 0, 15)))
	sender.failFor[bad.Email] = assert.AnError

	d := newTestDispatcher(flags, audit, sender)
	orch := NewOrchestrator(d, 0, testLogger())
	orch.now = func() time.Time { return today }

	summary, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NotificationsSent)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.ErrorsByEmployee, 1)
	assert.Equal(t, bad.ID, summary.ErrorsByEmployee[0].EmployeeID)
}
