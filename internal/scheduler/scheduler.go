package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/healthconnect/sms-dispatcher/internal/domain"
	"github.com/healthconnect/sms-dispatcher/pkg/logger"
)

// sweepRunner is a minimal internal interface for the scheduler. It matches
// the Run method of SweepService and lets us unit test the scheduler with a
// small fake implementation.
type sweepRunner interface {
	Run(ctx context.Context) (domain.SweepReport, error)
}

// Scheduler re-evaluates the follow-up sweep on a fixed interval. The sweep
// itself carries the durable once-per-day gate, so a short interval only
// costs one claimed-gate check per tick.
type Scheduler struct {
	sweep          sweepRunner
	interval       time.Duration
	alertWebhook   string
	alertThreshold int // consecutive all-fail runs before alert

	// Internal state
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
	mu       sync.RWMutex

	// Statistics
	lastRunAt       time.Time
	lastReport      domain.SweepReport
	remindersSent   int64
	runsCount       int64
	lastAlertSentAt time.Time

	// Alert tracking
	consecutiveAllFailCount int
}

func NewScheduler(sweep sweepRunner, interval time.Duration, alertWebhook string, alertThreshold int) *Scheduler {
	return &Scheduler{
		sweep:          sweep,
		interval:       interval,
		alertWebhook:   alertWebhook,
		alertThreshold: alertThreshold,
		running:        false,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()

	if s.running {
		s.mu.Unlock()
		logger.Warnf("Sweep scheduler is already running")
		return nil
	}

	s.running = true
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	s.mu.Unlock()

	logger.Infof("Starting sweep scheduler with interval: %v", s.interval)

	go s.run(ctx)

	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneChan)

	s.runSweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runSweep(ctx)

		case <-s.stopChan:
			logger.Warnf("Sweep scheduler received stop signal")
			return

		case <-ctx.Done():
			logger.Warnf("Sweep scheduler context cancelled")
			return
		}
	}
}

func (s *Scheduler) runSweep(ctx context.Context) {
	s.mu.Lock()
	s.lastRunAt = time.Now()
	s.runsCount++
	runNumber := s.runsCount
	alertWebhook := s.alertWebhook
	alertThreshold := s.alertThreshold
	s.mu.Unlock()

	report, err := s.sweep.Run(ctx)
	if err != nil {
		// Swallowed here so a storage hiccup never kills the scheduler
		// goroutine; the next tick retries.
		logger.Errorf("[Run #%d] Sweep failed: %v", runNumber, err)
		return
	}

	s.mu.Lock()
	s.lastReport = report
	s.remindersSent += int64(report.Sent)

	// A run that attempted sends and landed none indicates a provider or
	// configuration problem worth alerting on.
	if report.Attempted > 0 && report.Sent == 0 {
		s.consecutiveAllFailCount++
		logger.Warnf("[Run #%d] All %d reminder sends failed (consecutive count: %d/%d)",
			runNumber, report.Attempted, s.consecutiveAllFailCount, alertThreshold)

		if s.consecutiveAllFailCount >= alertThreshold && alertThreshold > 0 && alertWebhook != "" {
			go s.sendAlert(alertWebhook, runNumber, s.consecutiveAllFailCount, report.Attempted)
		}
	} else if report.Attempted > 0 {
		s.consecutiveAllFailCount = 0
	}
	s.mu.Unlock()

	if report.Claimed {
		logger.Infof("[Run #%d] Sweep for %s: %d sent, %d failed, %d skipped",
			runNumber, report.Date, report.Sent, report.Failed, report.Skipped)
	}
}

func (s *Scheduler) Stop() error {
	s.mu.Lock()

	if !s.running {
		s.mu.Unlock()
		logger.Warnf("Sweep scheduler is not running")
		return nil
	}

	s.running = false
	stopChan := s.stopChan
	doneChan := s.doneChan
	s.mu.Unlock()

	close(stopChan)
	<-doneChan

	logger.Infof("Sweep scheduler stopped")
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) GetStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := Status{
		Running:                 s.running,
		LastRunAt:               s.lastRunAt,
		LastReport:              s.lastReport,
		RemindersSent:           s.remindersSent,
		RunsCount:               s.runsCount,
		Interval:                s.interval,
		ConsecutiveAllFailCount: s.consecutiveAllFailCount,
		LastAlertSentAt:         s.lastAlertSentAt,
	}

	if s.running && !s.lastRunAt.IsZero() {
		status.NextRunAt = s.lastRunAt.Add(s.interval)
	}

	return status
}

func (s *Scheduler) sendAlert(webhookURL string, runNumber int64, consecutiveFailures, attempted int) {
	alertPayload := map[string]any{
		"alert":               "sweep_all_fail",
		"runNumber":           runNumber,
		"consecutiveFailures": consecutiveFailures,
		"remindersInBatch":    attempted,
		"timestamp":           time.Now().Format(time.RFC3339),
		"message": fmt.Sprintf(
			"All %d follow-up reminders failed for %d consecutive sweep runs",
			attempted,
			consecutiveFailures,
		),
	}

	jsonData, err := json.Marshal(alertPayload)
	if err != nil {
		logger.Errorf("Failed to marshal alert payload: %v", err)
		return
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		logger.Errorf("Failed to send alert to webhook: %v", err)
		return
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warnf("Failed to close alert webhook response body: %v", err)
		}
	}()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		s.mu.Lock()
		s.lastAlertSentAt = time.Now()
		s.mu.Unlock()
		logger.Infof("Alert sent successfully to %s (consecutive failures: %d)", webhookURL, consecutiveFailures)
	} else {
		logger.Warnf("Alert webhook returned status %d", resp.StatusCode)
	}
}

type Status struct {
	Running                 bool               `json:"running"`
	LastRunAt               time.Time          `json:"lastRunAt,omitempty"`
	NextRunAt               time.Time          `json:"nextRunAt,omitempty"`
	LastReport              domain.SweepReport `json:"lastReport"`
	RemindersSent           int64              `json:"remindersSent"`
	RunsCount               int64              `json:"runsCount"`
	Interval                time.Duration      `json:"interval"`
	ConsecutiveAllFailCount int                `json:"consecutiveAllFailCount"`
	LastAlertSentAt         time.Time          `json:"lastAlertSentAt,omitempty"`
}
