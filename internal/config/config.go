package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/domgest/internal/dom"
	"github.com/dgallion1/domgest/internal/lexer"
)

type Config struct {
	Port string

	// Auth. Empty disables bearer auth on /api routes.
	DomgestAPIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Limits
	MaxBodyBytes   int64
	MaxBufferBytes int

	// Fetching
	FetchTimeout time.Duration

	// Job state
	JobTTL time.Duration

	// Parse policies
	DuplicateAttrs string
	EndTags        string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DomgestAPIKey: os.Getenv("DOMGEST_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxBodyBytes:   envInt64("MAX_BODY_BYTES", 10485760), // 10MB
		MaxBufferBytes: envInt("MAX_BUFFER_BYTES", 0),

		FetchTimeout: envDuration("FETCH_TIMEOUT", 30*time.Second),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		DuplicateAttrs: envOr("DUPLICATE_ATTRS", "keep"),
		EndTags:        envOr("END_TAGS", "lenient"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 10485760
	}
	if cfg.MaxBufferBytes < 0 {
		cfg.MaxBufferBytes = 0
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if _, err := lexer.ParseDuplicatePolicy(c.DuplicateAttrs); err != nil {
		return fmt.Errorf("DUPLICATE_ATTRS: %w", err)
	}
	if _, err := dom.ParseEndTagPolicy(c.EndTags); err != nil {
		return fmt.Errorf("END_TAGS: %w", err)
	}
	return nil
}

// LexerOptions returns the configured lexer options. Call Validate first.
func (c Config) LexerOptions() lexer.Options {
	dup, _ := lexer.ParseDuplicatePolicy(c.DuplicateAttrs)
	return lexer.Options{DuplicateAttrs: dup, MaxBufferBytes: c.MaxBufferBytes}
}

// BuilderOptions returns the configured tree builder options. Call Validate first.
func (c Config) BuilderOptions() dom.Options {
	endTags, _ := dom.ParseEndTagPolicy(c.EndTags)
	return dom.Options{EndTags: endTags}
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
