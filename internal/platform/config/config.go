// Package config loads service configuration from an optional YAML file with
// environment variable overrides. The file carries deployment defaults; env
// vars win so containers can tweak a single knob without shipping a new file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the certification engine.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Exam    ExamConfig    `yaml:"exam"`
	Lockout LockoutConfig `yaml:"lockout"`
	Redis   RedisConfig   `yaml:"redis"`
	Audit   AuditConfig   `yaml:"audit"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	TicketSignKey string `yaml:"ticket_sign_key"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ExamConfig parameterizes the remote traffic-law exam.
type ExamConfig struct {
	// QuestionsPerExam questions are drawn from a pool of at least PoolSize.
	QuestionsPerExam int           `yaml:"questions_per_exam"`
	PoolSize         int           `yaml:"pool_size"`
	Duration         time.Duration `yaml:"duration"`
	// QuestionBankPath points at the JSON question bank; empty falls back
	// to the synthetic development pool.
	QuestionBankPath string `yaml:"question_bank_path"`
	// SessionValidity bounds how long scheduled credentials stay usable.
	SessionValidity time.Duration `yaml:"session_validity"`
}

// LockoutConfig parameterizes credential-guessing defenses.
type LockoutConfig struct {
	// FailureThreshold failures start the exponential backoff windows.
	FailureThreshold int           `yaml:"failure_threshold"`
	BaseBackoff      time.Duration `yaml:"base_backoff"`
	MaxBackoff       time.Duration `yaml:"max_backoff"`
	// RateLimitWindow/RateLimitMax: the independent server-side limiter.
	// Tripping it imposes a flat HardLockDuration regardless of the
	// per-credential counter.
	RateLimitWindow  time.Duration `yaml:"rate_limit_window"`
	RateLimitMax     int           `yaml:"rate_limit_max"`
	HardLockDuration time.Duration `yaml:"hard_lock_duration"`
}

// RedisConfig configures the optional Redis lockout store.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// AuditConfig configures audit sinks.
type AuditConfig struct {
	// PostgresURL, when set, persists audit events to Postgres instead of memory.
	PostgresURL string `yaml:"postgres_url"`
	// KafkaBrokers, when non-empty, additionally publishes events to Kafka.
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
	BufferSize   int      `yaml:"buffer_size"`
}

// Default returns the built-in configuration. Exam and lockout values follow
// the certification authority's published rules and are not expected to vary
// per deployment.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:          ":8080",
			TicketSignKey: "dev-secret-key-change-in-production",
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Exam: ExamConfig{
			QuestionsPerExam: 20,
			PoolSize:         25,
			Duration:         30 * time.Minute,
			SessionValidity:  7 * 24 * time.Hour,
		},
		Lockout: LockoutConfig{
			FailureThreshold: 3,
			BaseBackoff:      30 * time.Second,
			MaxBackoff:       300 * time.Second,
			RateLimitWindow:  time.Minute,
			RateLimitMax:     10,
			HardLockDuration: 15 * time.Minute,
		},
		Audit: AuditConfig{
			KafkaTopic: "drivecert.audit",
			BufferSize: 256,
		},
	}
}

// Load reads the YAML file at path (if non-empty) over the defaults, then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// FromEnv builds a config from defaults plus environment variables only.
func FromEnv() Config {
	cfg := Default()
	applyEnv(&cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DRIVECERT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DRIVECERT_TICKET_SIGN_KEY"); v != "" {
		cfg.Server.TicketSignKey = v
	}
	if v := os.Getenv("DRIVECERT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DRIVECERT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("DRIVECERT_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("DRIVECERT_AUDIT_POSTGRES_URL"); v != "" {
		cfg.Audit.PostgresURL = v
	}
	if v := os.Getenv("DRIVECERT_QUESTION_BANK"); v != "" {
		cfg.Exam.QuestionBankPath = v
	}
	if v := os.Getenv("DRIVECERT_EXAM_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Exam.Duration = d
		}
	}
	if v := os.Getenv("DRIVECERT_RATE_LIMIT_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Lockout.RateLimitMax = n
		}
	}
}
