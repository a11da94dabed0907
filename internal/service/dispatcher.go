package service

import (
	"context"
	"time"

	"github.com/healthconnect/sms-dispatcher/environments"
	"github.com/healthconnect/sms-dispatcher/internal/dedup"
	"github.com/healthconnect/sms-dispatcher/internal/domain"
	"github.com/healthconnect/sms-dispatcher/internal/format"
	"github.com/healthconnect/sms-dispatcher/pkg/logger"
	"github.com/healthconnect/sms-dispatcher/pkg/metrics"
)

// Small internal interfaces so we can test without touching real DB/Redis/gateway.
type settingsStore interface {
	Get(ctx context.Context, name string) (value string, ok bool, err error)
}

type deliveryLog interface {
	Insert(ctx context.Context, entry domain.DeliveryLogEntry) (int64, error)
}

type correlationStore interface {
	IsNotified(ctx context.Context, correlationID string) (bool, error)
	MarkNotified(ctx context.Context, correlationID string) error
}

type providerClient interface {
	Send(ctx context.Context, apiKey, senderID, recipient, body string) domain.ProviderResult
}

// DedupStore is exported because main picks between the Redis-backed store
// and the in-process fallback at startup.
type DedupStore interface {
	Claim(ctx context.Context, key string, window time.Duration) (won bool, err error)
}

// Dispatcher owns the send/dedupe/log state machine for a single
// notification. Every failure class is folded into the uniform
// DispatchResult; callers only branch on Success and Duplicate.
type Dispatcher struct {
	settings settingsStore
	logs     deliveryLog
	marks    correlationStore
	provider providerClient
	dedup    DedupStore
	config   environments.SMSConfig
	now      func() time.Time
}

func NewDispatcher(
	settings settingsStore,
	logs deliveryLog,
	marks correlationStore,
	provider providerClient,
	dedupStore DedupStore,
	config environments.SMSConfig,
) *Dispatcher {
	return &Dispatcher{
		settings: settings,
		logs:     logs,
		marks:    marks,
		provider: provider,
		dedup:    dedupStore,
		config:   config,
		now:      time.Now,
	}
}

func failure(message string) domain.DispatchResult {
	return domain.DispatchResult{Success: false, Message: message}
}

// Send runs one notification through the dispatch state machine:
// correlation pre-check, enablement, credentials, validation, dedup claim,
// provider call, delivery log, correlation mark.
func (d *Dispatcher) Send(ctx context.Context, req domain.SendRequest) domain.DispatchResult {
	// Cross-request idempotency: a correlation id that already produced a
	// notification is refused before anything else is read.
	if req.CorrelationID != "" {
		notified, err := d.marks.IsNotified(ctx, req.CorrelationID)
		if err != nil {
			logger.Errorf("Correlation check failed for %q: %v", req.CorrelationID, err)
			return failure("notification state unavailable")
		}
		if notified {
			metrics.DispatchOutcomes.WithLabelValues(metrics.OutcomeDuplicate).Inc()
			return failure("a notification was already sent for this event")
		}
	}

	enabled, _, err := d.settings.Get(ctx, domain.SettingSMSEnabled)
	if err != nil {
		logger.Errorf("Failed to read enablement setting: %v", err)
		return failure("settings unavailable")
	}
	if enabled != domain.SMSEnabledValue {
		metrics.DispatchOutcomes.WithLabelValues(metrics.OutcomeDisabled).Inc()
		return failure("SMS notifications are disabled in settings")
	}

	apiKey, _, err := d.settings.Get(ctx, domain.SettingSMSAPIKey)
	if err != nil {
		logger.Errorf("Failed to read API key setting: %v", err)
		return failure("settings unavailable")
	}
	if apiKey == "" {
		// Unlike the disabled flag, a missing credential with notifications
		// enabled is operator-actionable misconfiguration, not a quiet no-op.
		metrics.DispatchOutcomes.WithLabelValues(metrics.OutcomeMisconfigured).Inc()
		return failure("missing provider credential")
	}

	senderID, ok, err := d.settings.Get(ctx, domain.SettingSMSSenderID)
	if err != nil {
		logger.Errorf("Failed to read sender id setting: %v", err)
		return failure("settings unavailable")
	}
	if !ok || senderID == "" {
		senderID = d.config.DefaultSenderID
	}

	recipient := format.NormalizePhoneNumber(req.Recipient)
	if recipient == "" {
		metrics.DispatchOutcomes.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return failure("invalid recipient")
	}

	body := format.FormatMessageBody(req.Message, d.config.MessagePrefix)
	if body == "" {
		metrics.DispatchOutcomes.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return failure("invalid message")
	}

	if format.ExceedsSingleSegment(body) {
		logger.Warnf("Message to %s spans %d segments", recipient, format.SegmentCount(body))
	}

	// Short-window suppression on (recipient, exact body). The claim is one
	// atomic operation; of two near-simultaneous identical sends exactly one
	// reaches the provider. A cache outage fails open: dedup is a cost
	// control and must not block clinical notifications.
	won, err := d.dedup.Claim(ctx, dedup.Key(recipient, body), d.config.DedupWindow)
	if err != nil {
		logger.Warnf("Dedup cache unavailable, proceeding without suppression: %v", err)
	} else if !won {
		metrics.DispatchOutcomes.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		return domain.DispatchResult{
			Success:   false,
			Duplicate: true,
			Message:   "an identical message was just sent to this number",
			Recipient: recipient,
		}
	}

	providerResult := d.provider.Send(ctx, apiKey, senderID, recipient, body)

	success := providerResult.Completed() &&
		providerResult.StatusCode == 200 &&
		providerResult.Payload.Success

	resultMessage := providerResult.Payload.Message
	if success && resultMessage == "" {
		resultMessage = "message sent"
	}
	if !success && resultMessage == "" {
		resultMessage = "Unknown error"
	}

	d.writeLog(ctx, req, recipient, body, providerResult, success)

	if success {
		metrics.DispatchOutcomes.WithLabelValues(metrics.OutcomeSent).Inc()

		if req.CorrelationID != "" {
			if err := d.marks.MarkNotified(ctx, req.CorrelationID); err != nil {
				// Downgraded: the send already happened, a failed mark only
				// weakens the pre-check for future calls.
				logger.Warnf("Failed to mark correlation %q as notified: %v", req.CorrelationID, err)
			}
		}
	} else {
		metrics.DispatchOutcomes.WithLabelValues(metrics.OutcomeFailed).Inc()
	}

	return domain.DispatchResult{
		Success:           success,
		Message:           resultMessage,
		Recipient:         recipient,
		ProviderMessageID: providerResult.Payload.MessageID,
	}
}

// writeLog appends the immutable delivery log row. Best-effort: a log write
// failure never masks the dispatch outcome.
func (d *Dispatcher) writeLog(
	ctx context.Context,
	req domain.SendRequest,
	recipient, body string,
	providerResult domain.ProviderResult,
	success bool,
) {
	entry := domain.DeliveryLogEntry{
		Recipient: recipient,
		Message:   body,
		Status:    domain.StatusFailed,
		SentAt:    d.now(),
	}
	if success {
		entry.Status = domain.StatusSent
	}
	if req.CorrelationID != "" {
		correlationID := req.CorrelationID
		entry.CorrelationID = &correlationID
	}
	if providerResult.Payload.MessageID != "" {
		messageID := providerResult.Payload.MessageID
		entry.ProviderMessageID = &messageID
	}

	if _, err := d.logs.Insert(ctx, entry); err != nil {
		logger.Errorf("Failed to write delivery log for %s: %v", recipient, err)
	}
}
