package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/healthconnect/sms-dispatcher/environments"
	"github.com/healthconnect/sms-dispatcher/pkg/logger"
)

type Client struct {
	client valkey.Client
}

const dedupKeyPrefix = "sms_dedup:"

func NewRedisClient(cfg environments.RedisConfig) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Infof("Connected to Redis (via Valkey client)")

	return &Client{client: client}, nil
}

// Claim records the dedup key if it is not already present within the window.
// SET NX EX makes the check-and-record a single atomic operation: of two
// near-simultaneous dispatches for the same key, exactly one wins.
func (c *Client) Claim(ctx context.Context, key string, window time.Duration) (bool, error) {
	resp := c.client.Do(ctx, c.client.B().Set().
		Key(dedupKeyPrefix+key).
		Value("1").
		Nx().
		Ex(window).
		Build())

	if err := resp.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			// SET NX returns nil when the key already exists.
			return false, nil
		}
		return false, fmt.Errorf("failed to claim dedup key: %w", err)
	}

	return true, nil
}

func (c *Client) Close() error {
	c.client.Close()
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}
