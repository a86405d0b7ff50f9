// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AI provider identifiers accepted by AI_PROVIDER.
const (
	AIProviderGemini  = "gemini"
	AIProviderGateway = "gateway"
	AIProviderNone    = "none"
)

// leadLockMargin is the time a lead lock must cover beyond reply generation
// for the store round-trips of one exchange.
const leadLockMargin = 5 * time.Second

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq queue and the Redis lock.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// AIConfig provides settings for the reply generator.
type AIConfig interface {
	GetAIProvider() string
	GetAIModel() string
	GetAIAPIKey() string
	GetAIBaseURL() string
}

// ConversationConfig provides settings for the hand-off controller.
type ConversationConfig interface {
	GetAIReplyTimeout() time.Duration
	GetAIHistoryLimit() int
	GetLeadLockTTL() time.Duration
	GetClassifierRulesPath() string
}

// WebhookConfig provides settings for inbound lead intake.
type WebhookConfig interface {
	GetWebhookRatePerMinute() int
	GetPhoneDefaultRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	JWTAccessSecret      string
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	AIProvider           string
	AIModel              string
	AIAPIKey             string
	AIBaseURL            string
	AIReplyTimeout       time.Duration
	AIHistoryLimit       int
	LeadLockTTL          time.Duration
	ClassifierRulesPath  string
	WebhookRatePerMinute int
	PhoneDefaultRegion   string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// AIConfig implementation
func (c *Config) GetAIProvider() string { return c.AIProvider }
func (c *Config) GetAIModel() string    { return c.AIModel }
func (c *Config) GetAIAPIKey() string   { return c.AIAPIKey }
func (c *Config) GetAIBaseURL() string  { return c.AIBaseURL }

// ConversationConfig implementation
func (c *Config) GetAIReplyTimeout() time.Duration { return c.AIReplyTimeout }
func (c *Config) GetAIHistoryLimit() int           { return c.AIHistoryLimit }
func (c *Config) GetLeadLockTTL() time.Duration    { return c.LeadLockTTL }
func (c *Config) GetClassifierRulesPath() string   { return c.ClassifierRulesPath }

// WebhookConfig implementation
func (c *Config) GetWebhookRatePerMinute() int  { return c.WebhookRatePerMinute }
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:     mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		AIProvider:           strings.ToLower(strings.TrimSpace(getEnv("AI_PROVIDER", AIProviderGateway))),
		AIModel:              getEnv("AI_MODEL", "google/gemini-3-flash-preview"),
		AIAPIKey:             getEnv("AI_API_KEY", ""),
		AIBaseURL:            getEnv("AI_BASE_URL", "https://ai.gateway.lovable.dev/v1"),
		AIReplyTimeout:       mustDuration(getEnv("AI_REPLY_TIMEOUT", "20s")),
		AIHistoryLimit:       mustInt(getEnv("AI_HISTORY_LIMIT", "20")),
		LeadLockTTL:          mustDuration(getEnv("LEAD_LOCK_TTL", "60s")),
		ClassifierRulesPath:  getEnv("CLASSIFIER_RULES_PATH", ""),
		WebhookRatePerMinute: mustInt(getEnv("WEBHOOK_RATE_PER_MINUTE", "60")),
		PhoneDefaultRegion:   strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "BR")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	switch cfg.AIProvider {
	case AIProviderGemini, AIProviderGateway:
		if cfg.AIAPIKey == "" {
			return nil, fmt.Errorf("AI_API_KEY is required when AI_PROVIDER is %s", cfg.AIProvider)
		}
	case AIProviderNone:
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.AIProvider)
	}
	if cfg.AIReplyTimeout <= 0 {
		return nil, fmt.Errorf("AI_REPLY_TIMEOUT must be a positive duration")
	}
	if cfg.LeadLockTTL <= 0 {
		return nil, fmt.Errorf("LEAD_LOCK_TTL must be a positive duration")
	}
	if cfg.LeadLockTTL < cfg.AIReplyTimeout+leadLockMargin {
		return nil, fmt.Errorf("LEAD_LOCK_TTL (%s) must exceed AI_REPLY_TIMEOUT (%s) by at least %s", cfg.LeadLockTTL, cfg.AIReplyTimeout, leadLockMargin)
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
