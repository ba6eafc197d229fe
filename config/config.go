package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendFile     = "file"
	BackendMemory   = "memory"
)

type Config struct {
	Port       string `mapstructure:"PORT"`
	Env        string `mapstructure:"APP_ENV"`
	AppVersion string `mapstructure:"APP_VERSION"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
	LogFormat  string `mapstructure:"LOG_FORMAT"`

	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	RedisHost      string `mapstructure:"REDIS_HOST"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"`
	SnapshotKey    string `mapstructure:"SNAPSHOT_KEY"`
	DataFile       string `mapstructure:"DATA_FILE"`

	KafkaBroker      string `mapstructure:"KAFKA_BROKER"`
	KafkaTopic       string `mapstructure:"KAFKA_TOPIC"`
	KafkaGroupID     string `mapstructure:"KAFKA_GROUP_ID"`
	ElasticsearchURL string `mapstructure:"ELASTICSEARCH_URL"`
	PatientIndex     string `mapstructure:"PATIENT_INDEX"`
	SentryDSN        string `mapstructure:"SENTRY_DSN"`

	ReminderInterval time.Duration `mapstructure:"REMINDER_INTERVAL"`
	Timezone         string        `mapstructure:"TIMEZONE"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
}

var keys = []string{
	"PORT", "APP_ENV", "APP_VERSION", "LOG_LEVEL", "LOG_FORMAT",
	"STORAGE_BACKEND", "DB_HOST", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_PORT", "DB_SSLMODE",
	"REDIS_HOST", "REDIS_PASSWORD", "REDIS_DB", "SNAPSHOT_KEY", "DATA_FILE",
	"KAFKA_BROKER", "KAFKA_TOPIC", "KAFKA_GROUP_ID", "ELASTICSEARCH_URL", "PATIENT_INDEX",
	"SENTRY_DSN", "REMINDER_INTERVAL", "TIMEZONE", "CORS_ORIGINS",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("STORAGE_BACKEND", BackendFile)
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SNAPSHOT_KEY", "clinic:data")
	v.SetDefault("DATA_FILE", "clinic-data.json")
	v.SetDefault("KAFKA_TOPIC", "clinic_events")
	v.SetDefault("KAFKA_GROUP_ID", "clinic-indexer")
	v.SetDefault("PATIENT_INDEX", "patients")
	v.SetDefault("REMINDER_INTERVAL", "5m")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendPostgres:
		if c.DBHost == "" || c.DBName == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required for the %s backend", BackendPostgres)
		}
	case BackendRedis:
		if c.RedisHost == "" {
			return fmt.Errorf("REDIS_HOST is required for the %s backend", BackendRedis)
		}
	case BackendFile:
		if c.DataFile == "" {
			return fmt.Errorf("DATA_FILE is required for the %s backend", BackendFile)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of postgres, redis, file or memory, got %q", c.StorageBackend)
	}

	if c.ReminderInterval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive, got %s", c.ReminderInterval)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// DSN builds the postgres connection string from the DB_* settings.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

// Location resolves TIMEZONE. Calendar-day and month windows are cut in it.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
