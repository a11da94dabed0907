package environments

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Provider ProviderConfig
	SMS      SMSConfig
	Sweep    SweepConfig
	Alert    AlertConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ProviderConfig points at the SMS gateway. The API key and sender identity
// are deliberately NOT here: they live in the settings table so the admin
// screen can rotate them without a redeploy.
type ProviderConfig struct {
	URL     string
	Timeout time.Duration
}

type SMSConfig struct {
	// MessagePrefix is the provider-mandated sender disclaimer prepended to
	// every body.
	MessagePrefix string
	// DefaultSenderID is used when the sms_sender_id setting is unset.
	DefaultSenderID string
	// DedupWindow is how long an identical (recipient, message) pair is
	// suppressed.
	DedupWindow time.Duration
}

type SweepConfig struct {
	// CheckInterval is how often the scheduler re-evaluates the daily gate.
	CheckInterval time.Duration
	// SendInterval spaces successive sends within one sweep to stay under
	// the gateway's throttling threshold.
	SendInterval time.Duration
}

type AlertConfig struct {
	WebhookURL     string
	IterationCount int
}

type AuthConfig struct {
	NotificationsAPIKey string
	SweepAPIKey         string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: GetEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "3306"),
			User:     GetEnv("DB_USER", "healthconnect"),
			Password: GetEnv("DB_PASSWORD", "healthconnect123"),
			DBName:   GetEnv("DB_NAME", "healthconnect"),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvAsInt("REDIS_DB", 0),
		},
		Provider: ProviderConfig{
			URL:     GetEnv("SMS_GATEWAY_URL", "https://api.semaphore.co/api/v4/messages"),
			Timeout: time.Duration(GetEnvAsInt("SMS_GATEWAY_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		SMS: SMSConfig{
			MessagePrefix:   GetEnv("SMS_MESSAGE_PREFIX", "HealthConnect:"),
			DefaultSenderID: GetEnv("SMS_DEFAULT_SENDER_ID", "HEALTHCON"),
			DedupWindow:     GetEnvAsDuration("SMS_DEDUP_WINDOW", 60*time.Second),
		},
		Sweep: SweepConfig{
			CheckInterval: GetEnvAsDuration("SWEEP_CHECK_INTERVAL", 30*time.Minute),
			SendInterval:  GetEnvAsDuration("SWEEP_SEND_INTERVAL", 20*time.Second),
		},
		Alert: AlertConfig{
			WebhookURL:     GetEnv("ALERT_WEBHOOK_URL", ""),
			IterationCount: GetEnvAsInt("ALERT_ITERATION_COUNT", 0),
		},
		Auth: AuthConfig{
			NotificationsAPIKey: GetEnv("NOTIFICATIONS_API_KEY", ""),
			SweepAPIKey:         GetEnv("SWEEP_API_KEY", ""),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
