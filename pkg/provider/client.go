// Package provider is the boundary adapter for the external SMS gateway.
// It knows the gateway's wire format; the dispatcher only ever sees the
// neutral ProviderResult shape.
package provider

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/healthconnect/sms-dispatcher/environments"
	"github.com/healthconnect/sms-dispatcher/internal/domain"
	"github.com/healthconnect/sms-dispatcher/pkg/logger"
	"github.com/healthconnect/sms-dispatcher/pkg/metrics"
)

type Client struct {
	httpClient *resty.Client
	gatewayURL string
}

// gatewayRequest/gatewayResponse mirror the configured gateway's field
// names. Swapping providers means changing these two structs, nothing else.
type gatewayRequest struct {
	Number     string `json:"number"`
	Message    string `json:"message"`
	SenderName string `json:"sendername"`
}

type gatewayResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"message_id"`
}

// NewClient builds the gateway client with a bounded timeout. No retries at
// this layer: the dispatcher treats every attempt as final and retry policy
// belongs to the callers.
func NewClient(cfg environments.ProviderConfig) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		gatewayURL: cfg.URL,
	}
}

// Send performs one synchronous POST to the gateway. It never returns a Go
// error: transport failures (DNS, refused connection, timeout) come back as
// a synthetic result with TransportError set, so the dispatcher always gets
// a structured value. Non-2xx responses are returned as-is for the
// dispatcher to interpret.
func (c *Client) Send(ctx context.Context, apiKey, senderID, recipient, body string) domain.ProviderResult {
	payload := gatewayRequest{
		Number:     recipient,
		Message:    body,
		SenderName: senderID,
	}

	var gwResp gatewayResponse

	startTime := time.Now()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(apiKey).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetBody(payload).
		SetResult(&gwResp).
		SetError(&gwResp).
		Post(c.gatewayURL)

	duration := time.Since(startTime)
	metrics.ProviderRequestDuration.Observe(duration.Seconds())

	if err != nil {
		logger.Errorf("SMS gateway request failed after %v: %v", duration, err)
		return domain.ProviderResult{TransportError: err.Error()}
	}

	logger.Infof("SMS gateway request completed in %v (status: %d)", duration, resp.StatusCode())

	return domain.ProviderResult{
		StatusCode: resp.StatusCode(),
		Payload: domain.ProviderPayload{
			Success:   gwResp.Success,
			Message:   gwResp.Message,
			MessageID: gwResp.MessageID,
		},
	}
}

func (c *Client) GetURL() string {
	return c.gatewayURL
}
