package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the Homa assistant core server.
type Config struct {
	Port       int
	Version    string
	Database   DatabaseConfig
	Telemetry  TelemetryConfig
	Facts      FactsConfig
	SMS        SMSConfig
	Storefront StorefrontConfig
	Retention  RetentionConfig
}

type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Empty selects the
	// in-memory store.
	URL string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// FactsConfig locates the file-backed authority levels.
type FactsConfig struct {
	PanelSettingsPath string
	KnowledgeBasePath string
}

type SMSConfig struct {
	Endpoint string
	APIKey   string
}

type StorefrontConfig struct {
	BaseURL string
}

// RetentionConfig controls action-log pruning.
type RetentionConfig struct {
	Days int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envInt("HOMA_PORT", 8080),
		Version: envStr("HOMA_VERSION", "0.2.0"),
		Database: DatabaseConfig{
			URL: envStr("DATABASE_URL", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", false),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "homa-core"),
		},
		Facts: FactsConfig{
			PanelSettingsPath: envStr("HOMA_PANEL_SETTINGS", "panel.yaml"),
			KnowledgeBasePath: envStr("HOMA_KNOWLEDGE_BASE", "knowledge.yaml"),
		},
		SMS: SMSConfig{
			Endpoint: envStr("HOMA_SMS_ENDPOINT", ""),
			APIKey:   envStr("HOMA_SMS_API_KEY", ""),
		},
		Storefront: StorefrontConfig{
			BaseURL: envStr("HOMA_STOREFRONT_URL", "http://localhost:8081"),
		},
		Retention: RetentionConfig{
			Days: envInt("HOMA_LOG_RETENTION_DAYS", 30),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
