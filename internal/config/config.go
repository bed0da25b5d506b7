package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// History backends
const (
	HistoryFile     = "file"
	HistoryRedis    = "redis"
	HistoryPostgres = "postgres"
)

// Report backends
const (
	ReportsDisk = "disk"
	ReportsS3   = "s3"
)

// Config holds all configuration for hiresense
type Config struct {
	Server   ServerConfig
	Roles    RolesConfig
	History  HistoryConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Reports  ReportsConfig
	S3       S3Config
	Analysis AnalysisConfig
	Gemini   GeminiConfig
	AMQP     AMQPConfig
	Cleanup  CleanupConfig
	LogLevel string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	APIKeys        []string
	UploadMaxBytes int64
}

// RolesConfig points at the role keyword dictionary and the insights document
type RolesConfig struct {
	File         string
	InsightsFile string
}

// HistoryConfig selects and sizes the history store
type HistoryConfig struct {
	Backend  string
	File     string
	Capacity int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	DSN           string
	MigrationsDir string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Key      string
}

// ReportsConfig holds PDF report configuration
type ReportsConfig struct {
	Enabled   bool
	Backend   string
	Dir       string
	Retention time.Duration
}

// S3Config holds the report bucket configuration
type S3Config struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// AnalysisConfig selects the optional analysis strategies
type AnalysisConfig struct {
	SkillsTagger   string
	SimilarityMode string
	Summarizer     string
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// AMQPConfig holds the event broker configuration
type AMQPConfig struct {
	URL      string
	Exchange string
}

// CleanupConfig holds report retention worker configuration
type CleanupConfig struct {
	Interval time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			APIKeys:        getEnvAsList("API_KEYS"),
			UploadMaxBytes: int64(getEnvAsInt("UPLOAD_MAX_BYTES", 10<<20)),
		},
		Roles: RolesConfig{
			File:         getEnv("ROLES_FILE", "./configs/roles_keywords.yaml"),
			InsightsFile: getEnv("ROLE_INSIGHTS_FILE", "./configs/role_insights.json"),
		},
		History: HistoryConfig{
			Backend:  strings.ToLower(getEnv("HISTORY_BACKEND", HistoryFile)),
			File:     getEnv("HISTORY_FILE", "./data/history.json"),
			Capacity: getEnvAsInt("HISTORY_CAPACITY", 100),
		},
		Database: DatabaseConfig{
			DSN:           getEnv("DATABASE_DSN", ""),
			MigrationsDir: getEnv("DATABASE_MIGRATIONS_DIR", "./migrations"),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Key:      getEnv("REDIS_HISTORY_KEY", "hiresense:history"),
		},
		Reports: ReportsConfig{
			Enabled:   getEnvAsBool("REPORTS_ENABLED", true),
			Backend:   strings.ToLower(getEnv("REPORTS_BACKEND", ReportsDisk)),
			Dir:       getEnv("REPORTS_DIR", "./data/reports"),
			Retention: getEnvAsDuration("REPORTS_RETENTION", 720*time.Hour),
		},
		S3: S3Config{
			Bucket:    getEnv("S3_BUCKET", ""),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Region:    getEnv("S3_REGION", "auto"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
		Analysis: AnalysisConfig{
			SkillsTagger:   getEnv("SKILLS_TAGGER", "auto"),
			SimilarityMode: getEnv("SIMILARITY_MODE", "tfidf"),
			Summarizer:     getEnv("SUMMARIZER", "auto"),
		},
		Gemini: GeminiConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", ""),
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 20*time.Second),
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "hiresense.events"),
		},
		Cleanup: CleanupConfig{
			Interval: getEnvAsDuration("CLEANUP_INTERVAL", time.Hour),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.UploadMaxBytes <= 0 {
		return fmt.Errorf("upload limit must be positive: %d", c.Server.UploadMaxBytes)
	}

	if c.History.Capacity < 1 {
		return fmt.Errorf("invalid history capacity: %d", c.History.Capacity)
	}

	switch c.History.Backend {
	case HistoryFile:
		if c.History.File == "" {
			return fmt.Errorf("history file is required for the file backend")
		}
	case HistoryRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis address is required for the redis backend")
		}
	case HistoryPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown history backend: %s", c.History.Backend)
	}

	if c.Reports.Enabled {
		switch c.Reports.Backend {
		case ReportsDisk:
		case ReportsS3:
			if c.S3.Bucket == "" {
				return fmt.Errorf("s3 bucket is required for the s3 reports backend")
			}
		default:
			return fmt.Errorf("unknown reports backend: %s", c.Reports.Backend)
		}
	}

	if c.Cleanup.Interval <= 0 {
		return fmt.Errorf("invalid cleanup interval: %s", c.Cleanup.Interval)
	}

	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	return ParseLogLevel(c.LogLevel)
}

// ParseLogLevel parses debug, info, warn or error; anything else is info
func ParseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
