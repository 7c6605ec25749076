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

	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	DaySheets DaySheetConfig
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
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig validates access tokens issued by the external identity service.
type AuthConfig struct {
	Required bool
	Secret   string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig tunes the multi-service scheduling engine.
type SchedulerConfig struct {
	SpecialistBuffer  time.Duration
	TransitionBuffer  time.Duration
	CandidateStep     time.Duration
	MaxServices       int
	MaxResults        int
	MaxCandidates     int
	SearchCacheTTL    time.Duration
	SearchCacheEnable bool
}

// DaySheetConfig gates the specialist day-sheet export endpoint and its
// background archive.
type DaySheetConfig struct {
	Enabled        bool
	ArchiveEnabled bool
	ExportDir      string
	ArchiveTTL     time.Duration
	SweepInterval  time.Duration
	SignedURLTTL   time.Duration
	ArchiveWorkers int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Auth = AuthConfig{
		Required: v.GetBool("AUTH_REQUIRED"),
		Secret:   v.GetString("AUTH_TOKEN_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		SpecialistBuffer:  parseDuration(v.GetString("SCHEDULER_SPECIALIST_BUFFER"), 10*time.Minute),
		TransitionBuffer:  parseDuration(v.GetString("SCHEDULER_TRANSITION_BUFFER"), 15*time.Minute),
		CandidateStep:     parseDuration(v.GetString("SCHEDULER_CANDIDATE_STEP"), 15*time.Minute),
		MaxServices:       v.GetInt("SCHEDULER_MAX_SERVICES"),
		MaxResults:        v.GetInt("SCHEDULER_MAX_RESULTS"),
		MaxCandidates:     v.GetInt("SCHEDULER_MAX_CANDIDATES"),
		SearchCacheTTL:    parseDuration(v.GetString("SCHEDULER_SEARCH_CACHE_TTL"), 30*time.Second),
		SearchCacheEnable: v.GetBool("SCHEDULER_SEARCH_CACHE_ENABLED"),
	}

	cfg.DaySheets = DaySheetConfig{
		Enabled:        v.GetBool("ENABLE_DAY_SHEETS"),
		ArchiveEnabled: v.GetBool("DAY_SHEET_ARCHIVE_ENABLED"),
		ExportDir:      v.GetString("DAY_SHEET_EXPORT_DIR"),
		ArchiveTTL:     parseDuration(v.GetString("DAY_SHEET_ARCHIVE_TTL"), 30*24*time.Hour),
		SweepInterval:  parseDuration(v.GetString("DAY_SHEET_SWEEP_INTERVAL"), time.Hour),
		SignedURLTTL:   parseDuration(v.GetString("DAY_SHEET_SIGNED_URL_TTL"), 24*time.Hour),
		ArchiveWorkers: v.GetInt("DAY_SHEET_ARCHIVE_WORKERS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "booking_api")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("AUTH_REQUIRED", false)
	v.SetDefault("AUTH_TOKEN_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_SPECIALIST_BUFFER", "10m")
	v.SetDefault("SCHEDULER_TRANSITION_BUFFER", "15m")
	v.SetDefault("SCHEDULER_CANDIDATE_STEP", "15m")
	v.SetDefault("SCHEDULER_MAX_SERVICES", 10)
	v.SetDefault("SCHEDULER_MAX_RESULTS", 5)
	v.SetDefault("SCHEDULER_MAX_CANDIDATES", 500)
	v.SetDefault("SCHEDULER_SEARCH_CACHE_TTL", "30s")
	v.SetDefault("SCHEDULER_SEARCH_CACHE_ENABLED", false)

	v.SetDefault("ENABLE_DAY_SHEETS", false)
	v.SetDefault("DAY_SHEET_ARCHIVE_ENABLED", false)
	v.SetDefault("DAY_SHEET_EXPORT_DIR", "./exports")
	v.SetDefault("DAY_SHEET_ARCHIVE_TTL", "720h")
	v.SetDefault("DAY_SHEET_SWEEP_INTERVAL", "1h")
	v.SetDefault("DAY_SHEET_SIGNED_URL_TTL", "24h")
	v.SetDefault("DAY_SHEET_ARCHIVE_WORKERS", 2)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
