package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/healthconnect/sms-dispatcher/internal/domain"
)

// fakeSweep is a simple test double for sweepRunner.
type fakeSweep struct {
	reportToReturn domain.SweepReport
	errToReturn    error

	calls int
}

func (f *fakeSweep) Run(ctx context.Context) (domain.SweepReport, error) {
	f.calls++
	return f.reportToReturn, f.errToReturn
}

func TestScheduler_RunSweepAccumulatesStats(t *testing.T) {
	ctx := context.Background()

	sweep := &fakeSweep{
		reportToReturn: domain.SweepReport{
			Date:      "2025-03-10",
			Claimed:   true,
			Attempted: 3,
			Sent:      2,
			Failed:    1,
		},
	}
	s := &Scheduler{
		sweep:          sweep,
		interval:       time.Minute,
		alertThreshold: 3,
		alertWebhook:   "", // prevents HTTP calls
	}

	s.runSweep(ctx)

	status := s.GetStatus()
	if status.RemindersSent != 2 {
		t.Errorf("expected RemindersSent=2, got %d", status.RemindersSent)
	}
	if status.RunsCount != 1 {
		t.Errorf("expected RunsCount=1, got %d", status.RunsCount)
	}
	if status.ConsecutiveAllFailCount != 0 {
		t.Errorf("expected ConsecutiveAllFailCount=0, got %d", status.ConsecutiveAllFailCount)
	}
	if sweep.calls != 1 {
		t.Fatalf("expected 1 sweep call, got %d", sweep.calls)
	}
}

func TestScheduler_AllFailIncrementsCounter(t *testing.T) {
	ctx := context.Background()

	sweep := &fakeSweep{
		reportToReturn: domain.SweepReport{
			Claimed:   true,
			Attempted: 2,
			Sent:      0,
			Failed:    2,
		},
	}
	s := &Scheduler{
		sweep:          sweep,
		interval:       time.Minute,
		alertThreshold: 5,  // high enough so sendAlert is not triggered
		alertWebhook:   "", // also prevents HTTP calls
	}

	s.runSweep(ctx)

	status := s.GetStatus()
	if status.RemindersSent != 0 {
		t.Errorf("expected RemindersSent=0, got %d", status.RemindersSent)
	}
	if status.ConsecutiveAllFailCount != 1 {
		t.Errorf("expected ConsecutiveAllFailCount=1, got %d", status.ConsecutiveAllFailCount)
	}
}

func TestScheduler_GatedRunDoesNotTouchFailureCounter(t *testing.T) {
	ctx := context.Background()

	// Gate already claimed: nothing attempted.
	sweep := &fakeSweep{reportToReturn: domain.SweepReport{Claimed: false}}
	s := &Scheduler{
		sweep:    sweep,
		interval: time.Minute,
	}
	s.consecutiveAllFailCount = 2

	s.runSweep(ctx)

	if got := s.GetStatus().ConsecutiveAllFailCount; got != 2 {
		t.Errorf("expected counter unchanged for a gated run, got %d", got)
	}
}

func TestScheduler_StartAndStopToggleRunning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweep := &fakeSweep{}
	s := &Scheduler{
		sweep:    sweep,
		interval: 10 * time.Millisecond,
	}

	if s.IsRunning() {
		t.Fatalf("expected scheduler to be not running initially")
	}

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	if !s.IsRunning() {
		t.Fatalf("expected scheduler to be running after Start")
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}

	if s.IsRunning() {
		t.Fatalf("expected scheduler to be not running after Stop")
	}
}
