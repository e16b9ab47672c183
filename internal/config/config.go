package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth
	ServiceAPIKey string

	// OpenRouter selection/verdict providers
	OpenRouterAPIKey string
	OpenRouterModel  string
	Temperature      float64

	// Offline skips the LLM providers entirely and runs on the local
	// deterministic fallbacks.
	Offline bool

	// Asset catalog
	CatalogPath    string
	BrandRulesPath string
	BrandRules     string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Enrichment loop
	MaxAttempts            int
	VerdictThreshold       int
	PreValidationThreshold int
	SanitizeAnchors        bool

	// Availability probing
	ProbeEnabled     bool
	ProbeTimeout     time.Duration
	ProbeConcurrency int

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		ServiceAPIKey: os.Getenv("ENRICH_API_KEY"),

		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:  envOr("OPENROUTER_MODEL", "anthropic/claude-sonnet-4"),
		Temperature:      envFloat("LLM_TEMPERATURE", 0.3),

		Offline: envBool("OFFLINE", false),

		CatalogPath:    envOr("CATALOG_PATH", "catalog.db"),
		BrandRulesPath: os.Getenv("BRAND_RULES_PATH"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 4194304), // 4MB

		MaxAttempts:            envInt("MAX_ATTEMPTS", 3),
		VerdictThreshold:       envInt("VERDICT_THRESHOLD", 7),
		PreValidationThreshold: envInt("PREVALIDATION_THRESHOLD", 6),
		SanitizeAnchors:        envBool("SANITIZE_ANCHORS", true),

		ProbeEnabled:     envBool("PROBE_ENABLED", true),
		ProbeTimeout:     envDuration("PROBE_TIMEOUT", 8*time.Second),
		ProbeConcurrency: envInt("PROBE_CONCURRENCY", 8),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 4194304
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.ProbeConcurrency <= 0 {
		cfg.ProbeConcurrency = 8
	}

	return cfg
}

func (c Config) Validate() error {
	if c.ServiceAPIKey == "" {
		return fmt.Errorf("ENRICH_API_KEY is required")
	}
	if !c.Offline && c.OpenRouterAPIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required unless OFFLINE=true")
	}
	return nil
}

// LoadBrandRules reads the brand rules file when a path is configured.
// Missing path is fine; enrichment runs without brand rules.
func (c *Config) LoadBrandRules() error {
	if c.BrandRulesPath == "" {
		return nil
	}
	data, err := os.ReadFile(c.BrandRulesPath)
	if err != nil {
		return fmt.Errorf("brand rules: %w", err)
	}
	c.BrandRules = strings.TrimSpace(string(data))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
