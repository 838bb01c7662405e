package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Worker     WorkerConfig
	Logging    LoggingConfig
	EventBus   EventBusConfig
	TaxBureau  TaxBureauConfig
	Scheduler  SchedulerConfig
	Storage    StorageConfig
	Categories CategoriesConfig
	User       UserConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ShutdownTimeout time.Duration
	MaxUploadSize   int64
}

type WorkerConfig struct {
	PoolSize   int
	MaxRetries int
}

type LoggingConfig struct {
	Level string
}

type EventBusConfig struct {
	ChannelBufferSize int
	RetryBaseDelay    time.Duration
}

type TaxBureauConfig struct {
	BaseURL        string
	APIKey         string
	Version        string
	Timeout        time.Duration
	ListTaxRate    float64
	DetailTaxRate  float64
	MaxRetries     int
	RetryBaseDelay time.Duration
	ProbeMonths    int
}

type SchedulerConfig struct {
	Enabled          bool
	Interval         time.Duration
	FailureThreshold int
	Cooldown         time.Duration
}

type StorageConfig struct {
	Driver     string
	SQLitePath string
}

type CategoriesConfig struct {
	RulesPath string
}

type UserConfig struct {
	DefaultID string
}

const (
	StorageDriverMemory = "memory"
	StorageDriverSQLite = "sqlite"
)

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values")
	}

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxUploadSize:   int64(getIntEnv("MAX_UPLOAD_SIZE_MB", 10)) << 20,
		},
		Worker: WorkerConfig{
			PoolSize:   getIntEnv("WORKER_POOL_SIZE", 2),
			MaxRetries: getIntEnv("MAX_RETRIES", 5),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		EventBus: EventBusConfig{
			ChannelBufferSize: getIntEnv("EVENT_CHANNEL_BUFFER_SIZE", 100),
			RetryBaseDelay:    getDurationEnv("EVENT_RETRY_BASE_DELAY", time.Second),
		},
		TaxBureau: TaxBureauConfig{
			BaseURL:        getEnv("EINVOICE_API_URL", "https://api.einvoice.nat.gov.tw/PB2CAPIVAN/invapp/InvApp"),
			APIKey:         getEnv("EINVOICE_API_KEY", ""),
			Version:        getEnv("EINVOICE_API_VERSION", "0.5"),
			Timeout:        getDurationEnv("EINVOICE_TIMEOUT", 30*time.Second),
			ListTaxRate:    getFloatEnv("EINVOICE_LIST_TAX_RATE", 0.05),
			DetailTaxRate:  getFloatEnv("EINVOICE_DETAIL_TAX_RATE", 0.05),
			MaxRetries:     getIntEnv("EINVOICE_MAX_RETRIES", 3),
			RetryBaseDelay: getDurationEnv("EINVOICE_RETRY_BASE_DELAY", 500*time.Millisecond),
			ProbeMonths:    getIntEnv("EINVOICE_PROBE_MONTHS", 3),
		},
		Scheduler: SchedulerConfig{
			Enabled:          getBoolEnv("AUTO_SYNC_ENABLED", false),
			Interval:         getDurationEnv("AUTO_SYNC_INTERVAL", time.Hour),
			FailureThreshold: getIntEnv("AUTO_SYNC_FAILURE_THRESHOLD", 3),
			Cooldown:         getDurationEnv("AUTO_SYNC_COOLDOWN", 6*time.Hour),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverMemory)),
			SQLitePath: getEnv("SQLITE_PATH", "einvoice.db"),
		},
		Categories: CategoriesConfig{
			RulesPath: getEnv("CATEGORY_RULES_PATH", ""),
		},
		User: UserConfig{
			DefaultID: getEnv("DEFAULT_USER_ID", "local"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getFloatEnv(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %g", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getBoolEnv(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %t", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid duration for %s: %s, using default: %s", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}
