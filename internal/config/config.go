package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session state backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Email providers for the optional email recipient.
const (
	EmailProviderSendGrid = "sendgrid"
	EmailProviderSES      = "ses"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	TelegramBotToken    string
	TelegramDebug       bool
	TelegramPollTimeout int

	// AdminUserID is the only identity allowed to run admin triggers and the
	// primary recipient of submitted applications.
	AdminUserID int64
	// WorkChatID is an optional secondary recipient; 0 disables it.
	WorkChatID int64
	// ListingsChannelID receives new listings created by the admin; 0 disables broadcast.
	ListingsChannelID int64

	DatabaseURL  string
	ListingsSeed bool

	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool
	SessionBackend string
	SessionTTL     time.Duration
	MaxSessions    int

	NotifyTimeout time.Duration

	// Email Configuration. The sender address is shared by both providers;
	// NOTIFY_FROM_* fall back to the older SENDGRID_FROM_* names.
	EmailProvider  string
	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string
	NotifyEmail    string

	// AWS Configuration (SES email provider)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		TelegramBotToken:    strings.TrimSpace(getEnv("TELEGRAM_BOT_TOKEN", "")),
		TelegramDebug:       getEnvAsBool("TELEGRAM_DEBUG", false),
		TelegramPollTimeout: getEnvAsInt("TELEGRAM_POLL_TIMEOUT", 60),

		AdminUserID:       getEnvAsInt64("ADMIN_USER_ID", 0),
		WorkChatID:        getEnvAsInt64("WORK_CHAT_ID", 0),
		ListingsChannelID: getEnvAsInt64("LISTINGS_CHANNEL_ID", 0),

		DatabaseURL:  getEnv("DATABASE_URL", ""),
		ListingsSeed: getEnvAsBool("LISTINGS_SEED", false),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),
		SessionBackend: strings.ToLower(strings.TrimSpace(getEnv("SESSION_BACKEND", SessionBackendMemory))),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		MaxSessions:    getEnvAsInt("MAX_SESSIONS", 1024),

		NotifyTimeout: getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),

		EmailProvider:  strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", EmailProviderSendGrid))),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:      strings.TrimSpace(getEnv("NOTIFY_FROM_EMAIL", getEnv("SENDGRID_FROM_EMAIL", ""))),
		EmailFromName:  getEnv("NOTIFY_FROM_NAME", getEnv("SENDGRID_FROM_NAME", "Rental Bot")),
		NotifyEmail:    strings.TrimSpace(getEnv("NOTIFY_EMAIL", "")),

		AWSRegion:           getEnv("AWS_REGION", "eu-west-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// Validate reports missing or inconsistent settings required to start the bot.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil config")
	}
	var errs []error
	if c.TelegramBotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if c.AdminUserID == 0 {
		errs = append(errs, errors.New("ADMIN_USER_ID is required"))
	}
	switch c.SessionBackend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when SESSION_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend))
	}
	if c.SessionTTL < 0 {
		errs = append(errs, errors.New("SESSION_TTL must not be negative"))
	}
	if c.NotifyEmail != "" {
		switch c.EmailProvider {
		case EmailProviderSendGrid:
			if c.SendGridAPIKey == "" {
				errs = append(errs, errors.New("SENDGRID_API_KEY is required when NOTIFY_EMAIL is set"))
			}
		case EmailProviderSES:
			if c.AWSRegion == "" {
				errs = append(errs, errors.New("AWS_REGION is required when EMAIL_PROVIDER=ses"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown EMAIL_PROVIDER %q", c.EmailProvider))
		}
		if c.EmailFrom == "" {
			errs = append(errs, errors.New("NOTIFY_FROM_EMAIL is required when NOTIFY_EMAIL is set"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 is getEnvAsInt for chat identifiers, which overflow 32 bits.
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
