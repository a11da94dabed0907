package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/healthconnect/sms-dispatcher/environments"
	"github.com/healthconnect/sms-dispatcher/internal/domain"
	"github.com/healthconnect/sms-dispatcher/pkg/logger"
	"github.com/healthconnect/sms-dispatcher/pkg/metrics"
)

type sweepStore interface {
	ClaimRun(ctx context.Context, date string) (bool, error)
	ReleaseRun(ctx context.Context, date string) error
	CompleteRun(ctx context.Context, date string, sentCount int) error
	ClaimReminder(ctx context.Context, medicalRecordID int64, date string) (bool, error)
	ReleaseReminder(ctx context.Context, medicalRecordID int64, date string) error
}

type followUpLister interface {
	ListDueFollowUps(ctx context.Context, date string) ([]domain.FollowUpDue, error)
}

// SweepService runs the once-per-day follow-up reminder batch. The daily
// gate and the per-record claims live in durable storage as single
// INSERT IGNORE operations, so overlapping runs (ticker + manual trigger,
// or two replicas) resolve to one winner per record.
type SweepService struct {
	settings settings
	store    sweepStore
	records  followUpLister
	sender   notificationSender
	limiter  *rate.Limiter
	now      func() time.Time
}

// settings is a local alias of the dispatcher's settings dependency; the
// sweep re-checks enablement before scanning.
type settings interface {
	Get(ctx context.Context, name string) (string, bool, error)
}

func NewSweepService(
	settingsStore settings,
	store sweepStore,
	records followUpLister,
	sender notificationSender,
	cfg environments.SweepConfig,
) *SweepService {
	interval := cfg.SendInterval
	if interval <= 0 {
		interval = 20 * time.Second
	}

	return &SweepService{
		settings: settingsStore,
		store:    store,
		records:  records,
		sender:   sender,
		// Token bucket in place of a fixed inter-message sleep: one send per
		// interval, with a burst of one so the first send goes immediately.
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		now:     time.Now,
	}
}

// Run executes at most one sweep for the current day. It returns a report
// even when the daily gate was already claimed (Claimed=false, nothing
// done). Per-record failures are isolated: one bad record never aborts the
// rest of the batch.
func (s *SweepService) Run(ctx context.Context) (domain.SweepReport, error) {
	today := s.now().Format("2006-01-02")
	report := domain.SweepReport{
		RunID:     uuid.NewString(),
		Date:      today,
		StartedAt: s.now(),
	}

	claimed, err := s.store.ClaimRun(ctx, today)
	if err != nil {
		return report, fmt.Errorf("failed to claim sweep run: %w", err)
	}
	if !claimed {
		logger.Debugf("[sweep %s] Already ran for %s, skipping", report.RunID, today)
		metrics.SweepRuns.WithLabelValues("skipped").Inc()
		return report, nil
	}
	report.Claimed = true

	// Re-check enablement. Disabled keeps the daily claim: the operator
	// turned notifications off, re-scanning every tick would be noise.
	// A read ERROR is different: the claim must be given back, or one
	// transient hiccup would silently cancel the whole day's reminders.
	enabled, _, err := s.settings.Get(ctx, domain.SettingSMSEnabled)
	if err != nil {
		s.releaseRun(ctx, today)
		return report, fmt.Errorf("failed to read enablement setting: %w", err)
	}
	if enabled != domain.SMSEnabledValue {
		logger.Infof("[sweep %s] SMS notifications disabled, nothing to do", report.RunID)
		metrics.SweepRuns.WithLabelValues("disabled").Inc()
		s.completeRun(ctx, today, 0)
		return report, nil
	}

	due, err := s.records.ListDueFollowUps(ctx, today)
	if err != nil {
		s.releaseRun(ctx, today)
		return report, fmt.Errorf("failed to list due follow-ups: %w", err)
	}

	logger.Infof("[sweep %s] %d follow-up records due on %s", report.RunID, len(due), today)

	for _, record := range due {
		if ctx.Err() != nil {
			logger.Warnf("[sweep %s] Cancelled after %d sends", report.RunID, report.Sent)
			break
		}

		outcome := s.processRecord(ctx, record, today)
		switch outcome {
		case sweepSent:
			report.Attempted++
			report.Sent++
		case sweepFailed:
			report.Attempted++
			report.Failed++
		case sweepSkipped:
			report.Skipped++
		}
	}

	s.completeRun(ctx, today, report.Sent)
	metrics.SweepRuns.WithLabelValues("completed").Inc()

	logger.Infof("[sweep %s] Done: %d sent, %d failed, %d skipped",
		report.RunID, report.Sent, report.Failed, report.Skipped)

	return report, nil
}

type sweepOutcome int

const (
	sweepSkipped sweepOutcome = iota
	sweepSent
	sweepFailed
)

func (s *SweepService) processRecord(ctx context.Context, record domain.FollowUpDue, today string) sweepOutcome {
	claimed, err := s.store.ClaimReminder(ctx, record.RecordID, today)
	if err != nil {
		logger.Errorf("Failed to claim reminder slot for record %d: %v", record.RecordID, err)
		return sweepFailed
	}
	if !claimed {
		// Already reminded today by an earlier run. The manual follow-up
		// trigger never claims these slots; it relies on the dedup window.
		return sweepSkipped
	}

	if err := s.limiter.Wait(ctx); err != nil {
		s.releaseReminder(ctx, record.RecordID, today)
		return sweepSkipped
	}

	result := s.sender.Send(ctx, domain.SendRequest{
		Recipient: record.PhoneNumber,
		Message:   BuildFollowUpMessage(record.PatientName, record.Notes),
	})

	if !result.Success {
		if result.Duplicate {
			// An identical message just went out through another trigger;
			// the patient is covered, keep the claim.
			return sweepSkipped
		}

		logger.Warnf("Follow-up reminder for record %d failed: %s", record.RecordID, result.Message)
		// Free the slot so a later run may retry; the sent flag only
		// survives for successful sends.
		s.releaseReminder(ctx, record.RecordID, today)
		return sweepFailed
	}

	return sweepSent
}

// releaseRun hands the daily gate back after a failure between claiming and
// scanning, so the next tick can retry instead of losing the day.
func (s *SweepService) releaseRun(ctx context.Context, date string) {
	if err := s.store.ReleaseRun(ctx, date); err != nil {
		logger.Errorf("Failed to release sweep run claim for %s: %v", date, err)
	}
}

func (s *SweepService) releaseReminder(ctx context.Context, recordID int64, date string) {
	if err := s.store.ReleaseReminder(ctx, recordID, date); err != nil {
		logger.Errorf("Failed to release reminder slot for record %d: %v", recordID, err)
	}
}

func (s *SweepService) completeRun(ctx context.Context, date string, sent int) {
	if err := s.store.CompleteRun(ctx, date, sent); err != nil {
		logger.Errorf("Failed to record sweep completion for %s: %v", date, err)
	}
}
