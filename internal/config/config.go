// stockwatch/internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	SourceWarehouse = "warehouse"
	SourceDemo      = "demo"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Source   SourceConfig
	Forecast ForecastConfig
	Planner  PlannerConfig
	Storage  StorageConfig
	Kafka    KafkaConfig
	LLM      LLMConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the libpq style connection string, preferring DATABASE_URL when set.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type AppConfig struct {
	UploadDir string
	DataDir   string
	ExportDir string
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	SummaryTTLSeconds int
}

// SourceConfig selects where inventory snapshots come from.
type SourceConfig struct {
	Mode        string
	DemoSeed    int64
	HistoryDays int
}

type ForecastConfig struct {
	HorizonDays int
	// MaxHorizonDays bounds the horizon a request may ask for.
	MaxHorizonDays int
	MaxItems       int
	// Seed fixes the simulation seed for reproducible runs; 0 seeds from the clock per request.
	Seed int64
}

type PlannerConfig struct {
	OrderingCostUSD float64
	HoldingRate     float64
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Prefix    string
}

type KafkaConfig struct {
	Enabled    bool
	Brokers    []string
	AlertTopic string
}

type LLMConfig struct {
	APIKey string
	Model  string
}

type MetricsConfig struct {
	Enabled bool
	Prefix  string
}

var (
	once     sync.Once
	instance *Config
)

// Load reads .env and the process environment once and memoises the result.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.GetViper()
		SetDefaults(v)

		// Read from environment variables
		v.AutomaticEnv()

		instance = FromViper(v)

		// Ensure upload, data and export directories exist
		ensureDir(instance.App.UploadDir)
		ensureDir(instance.App.DataDir)
		ensureDir(instance.App.ExportDir)
	})

	return instance
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "stockwatch")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("APP_UPLOAD_DIR", "./data/uploads")
	v.SetDefault("APP_DATA_DIR", "./data/output")
	v.SetDefault("APP_EXPORT_DIR", "./data/exports")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_SUMMARY_TTL_SECONDS", 60)
	v.SetDefault("SOURCE_MODE", SourceDemo)
	v.SetDefault("DEMO_SEED", 42)
	v.SetDefault("DEMO_HISTORY_DAYS", 90)
	v.SetDefault("FORECAST_HORIZON_DAYS", 14)
	v.SetDefault("FORECAST_MAX_HORIZON_DAYS", 90)
	v.SetDefault("FORECAST_MAX_ITEMS", 5000)
	v.SetDefault("FORECAST_SEED", 0)
	v.SetDefault("PLANNER_ORDERING_COST_USD", 50.0)
	v.SetDefault("PLANNER_HOLDING_RATE", 0.25)
	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "stockwatch-exports")
	v.SetDefault("STORAGE_USE_SSL", false)
	v.SetDefault("STORAGE_PREFIX", "reorder")
	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", []string{"localhost:9092"})
	v.SetDefault("KAFKA_ALERT_TOPIC", "inventory.alerts")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", "gpt-4o")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_PREFIX", "stockwatch")
}

// FromViper builds a Config from an explicit viper instance.
func FromViper(v *viper.Viper) *Config {
	mode := strings.ToLower(strings.TrimSpace(v.GetString("SOURCE_MODE")))
	if mode != SourceWarehouse {
		mode = SourceDemo
	}

	maxHorizon := v.GetInt("FORECAST_MAX_HORIZON_DAYS")
	if maxHorizon <= 0 {
		maxHorizon = 90
	}
	horizon := v.GetInt("FORECAST_HORIZON_DAYS")
	if horizon <= 0 {
		horizon = 14
	}
	if horizon > maxHorizon {
		horizon = maxHorizon
	}

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Database: DatabaseConfig{
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		App: AppConfig{
			UploadDir: v.GetString("APP_UPLOAD_DIR"),
			DataDir:   v.GetString("APP_DATA_DIR"),
			ExportDir: v.GetString("APP_EXPORT_DIR"),
		},
		Cache: CacheConfig{
			Enabled:           v.GetBool("CACHE_ENABLED"),
			RedisURL:          v.GetString("REDIS_URL"),
			RedisHost:         v.GetString("REDIS_HOST"),
			RedisPort:         v.GetString("REDIS_PORT"),
			RedisPassword:     v.GetString("REDIS_PASSWORD"),
			RedisDB:           v.GetInt("REDIS_DB"),
			SummaryTTLSeconds: v.GetInt("CACHE_SUMMARY_TTL_SECONDS"),
		},
		Source: SourceConfig{
			Mode:        mode,
			DemoSeed:    v.GetInt64("DEMO_SEED"),
			HistoryDays: v.GetInt("DEMO_HISTORY_DAYS"),
		},
		Forecast: ForecastConfig{
			HorizonDays:    horizon,
			MaxHorizonDays: maxHorizon,
			MaxItems:       v.GetInt("FORECAST_MAX_ITEMS"),
			Seed:           v.GetInt64("FORECAST_SEED"),
		},
		Planner: PlannerConfig{
			OrderingCostUSD: v.GetFloat64("PLANNER_ORDERING_COST_USD"),
			HoldingRate:     v.GetFloat64("PLANNER_HOLDING_RATE"),
		},
		Storage: StorageConfig{
			Enabled:   v.GetBool("STORAGE_ENABLED"),
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
			Prefix:    v.GetString("STORAGE_PREFIX"),
		},
		Kafka: KafkaConfig{
			Enabled:    v.GetBool("KAFKA_ENABLED"),
			Brokers:    splitList(v.GetStringSlice("KAFKA_BROKERS")),
			AlertTopic: v.GetString("KAFKA_ALERT_TOPIC"),
		},
		LLM: LLMConfig{
			APIKey: v.GetString("OPENAI_API_KEY"),
			Model:  v.GetString("OPENAI_MODEL"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
			Prefix:  v.GetString("METRICS_PREFIX"),
		},
	}
}

// splitList flattens comma separated entries coming from a single env var.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
