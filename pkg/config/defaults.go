// Package config provides centralized default values for WorkPulse
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Cache Configuration
	CacheCapacity   int
	DefaultCacheTTL time.Duration
	CacheDBURL      string

	// Materialized View TTLs
	PatternRollupTTL    time.Duration
	DepartmentHealthTTL time.Duration
	InterventionROITTL  time.Duration

	// Circuit Breaker
	BreakerFailureThreshold int
	BreakerResetTimeout     time.Duration

	// Monitoring
	MetricBufferSize      int
	MetricsEndpoint       string
	MetricsReportInterval time.Duration
	AlertWebhookURL       string
	AlertEmail            string
	ResendAPIKey          string
	Environment           string

	// Realtime Broadcaster
	QueueDrainInterval    time.Duration
	SubscriptionSweep     time.Duration
	SubscriptionIdleLimit time.Duration

	// Cleanup Intervals
	CacheSweepInterval   time.Duration
	InsightPurgeInterval time.Duration

	// Database
	DatabasePath             string
	DatabaseURL              string
	DatabaseAuthToken        string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	SlowQueryThreshold       time.Duration

	// Auth
	JWTSecret         string
	AdminPasswordHash string

	// Deployment
	DemoMode bool
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Cache
	CacheCapacity = getEnvInt("CACHE_CAPACITY", 1000)
	DefaultCacheTTL = getEnvDuration("DEFAULT_CACHE_TTL", 5*time.Minute)
	CacheDBURL = getEnvString("CACHE_DB_URL", "")

	// Materialized Views
	PatternRollupTTL = getEnvDuration("PATTERN_ROLLUP_TTL", 5*time.Minute)
	DepartmentHealthTTL = getEnvDuration("DEPARTMENT_HEALTH_TTL", 24*time.Hour)
	InterventionROITTL = getEnvDuration("INTERVENTION_ROI_TTL", 7*24*time.Hour)

	// Circuit Breaker
	BreakerFailureThreshold = getEnvInt("BREAKER_FAILURE_THRESHOLD", 5)
	BreakerResetTimeout = getEnvDuration("BREAKER_RESET_TIMEOUT", 60*time.Second)

	// Monitoring
	MetricBufferSize = getEnvInt("METRIC_BUFFER_SIZE", 1000)
	MetricsEndpoint = getEnvString("METRICS_ENDPOINT", "")
	MetricsReportInterval = getEnvDuration("METRICS_REPORT_INTERVAL", time.Minute)
	AlertWebhookURL = getEnvString("ALERT_WEBHOOK_URL", "")
	AlertEmail = getEnvString("ALERT_EMAIL", "")
	ResendAPIKey = getEnvString("RESEND_APIKEY", "")
	Environment = getEnvString("ENVIRONMENT", "development")

	// Realtime Broadcaster
	QueueDrainInterval = getEnvDuration("QUEUE_DRAIN_INTERVAL", 2*time.Second)
	SubscriptionSweep = getEnvDuration("SUBSCRIPTION_SWEEP_INTERVAL", 30*time.Second)
	SubscriptionIdleLimit = getEnvDuration("SUBSCRIPTION_IDLE_LIMIT", 5*time.Minute)

	// Cleanup Intervals
	CacheSweepInterval = getEnvDuration("CACHE_SWEEP_INTERVAL", 60*time.Second)
	InsightPurgeInterval = getEnvDuration("INSIGHT_PURGE_INTERVAL", time.Hour)

	// Database
	DatabasePath = getEnvString("DATABASE_PATH", "workpulse.db")
	DatabaseURL = getEnvString("DATABASE_URL", "")
	DatabaseAuthToken = getEnvString("DATABASE_AUTH_TOKEN", "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 500*time.Millisecond)

	// Auth
	JWTSecret = getEnvString("JWT_SECRET", "workpulse-dev-secret")
	AdminPasswordHash = getEnvString("ADMIN_PASSWORD_HASH", "")

	// Deployment
	DemoMode = getEnvBool("DEMO_MODE", false)
}
