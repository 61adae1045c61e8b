package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Booking    BookingConfig
	Statistics StatisticsConfig
	Dispatch   DispatchConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BookingConfig tunes slot generation defaults for availability requests.
type BookingConfig struct {
	DefaultSlotDuration int
	DefaultBuffer       int
	MeetingLinkBaseURL  string
}

// StatisticsConfig controls statistics derivation and caching.
type StatisticsConfig struct {
	PeriodGapMinutes int
	CacheTTL         time.Duration
}

// DispatchConfig sizes the post-commit notification worker pool.
type DispatchConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// Load reads configuration from the environment, honouring a local .env file
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "vetlink")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "vetlink")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_ENABLED", true)

	v.SetDefault("JWT_SECRET", "")

	v.SetDefault("CORS_ALLOWED_ORIGINS", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BOOKING_DEFAULT_SLOT_DURATION", 30)
	v.SetDefault("BOOKING_DEFAULT_BUFFER", 0)
	v.SetDefault("BOOKING_MEETING_LINK_BASE_URL", "https://meet.vetlink.io")

	v.SetDefault("STATS_PERIOD_GAP_MINUTES", 50)
	v.SetDefault("STATS_CACHE_TTL", "5m")

	v.SetDefault("DISPATCH_WORKERS", 2)
	v.SetDefault("DISPATCH_BUFFER_SIZE", 64)
	v.SetDefault("DISPATCH_MAX_RETRIES", 3)
	v.SetDefault("DISPATCH_RETRY_DELAY", "2s")

	cfg := &Config{
		Env:       v.GetString("ENV"),
		Port:      v.GetInt("PORT"),
		APIPrefix: v.GetString("API_PREFIX"),
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetInt("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Enabled:  v.GetBool("REDIS_ENABLED"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitAndTrim(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Booking: BookingConfig{
			DefaultSlotDuration: v.GetInt("BOOKING_DEFAULT_SLOT_DURATION"),
			DefaultBuffer:       v.GetInt("BOOKING_DEFAULT_BUFFER"),
			MeetingLinkBaseURL:  v.GetString("BOOKING_MEETING_LINK_BASE_URL"),
		},
		Statistics: StatisticsConfig{
			PeriodGapMinutes: v.GetInt("STATS_PERIOD_GAP_MINUTES"),
			CacheTTL:         v.GetDuration("STATS_CACHE_TTL"),
		},
		Dispatch: DispatchConfig{
			Workers:    v.GetInt("DISPATCH_WORKERS"),
			BufferSize: v.GetInt("DISPATCH_BUFFER_SIZE"),
			MaxRetries: v.GetInt("DISPATCH_MAX_RETRIES"),
			RetryDelay: v.GetDuration("DISPATCH_RETRY_DELAY"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Env == EnvProduction && c.JWT.Secret == "" {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.Statistics.PeriodGapMinutes <= 0 {
		return errors.New("STATS_PERIOD_GAP_MINUTES must be positive")
	}
	if c.Booking.DefaultSlotDuration <= 0 {
		return errors.New("BOOKING_DEFAULT_SLOT_DURATION must be positive")
	}
	return nil
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
