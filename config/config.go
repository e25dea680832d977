package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort           string
	LogLevel             string
	PlatformBaseURL      string
	PlatformAppID        string
	PlatformAPIKey       string
	CompanyIndexTTLMins  string
	IndexWarmIntervalMin string
	HTTPTimeoutSeconds   string
}

// GetCompanyIndexTTL returns the company-name index TTL from environment or
// the 5 minute default the dashboard was designed around.
func (c *Config) GetCompanyIndexTTL() time.Duration {
	if c.CompanyIndexTTLMins == "" {
		return 5 * time.Minute
	}

	minutes, err := strconv.Atoi(c.CompanyIndexTTLMins)
	if err != nil || minutes <= 0 {
		logrus.Warnf("Invalid COMPANY_INDEX_TTL_MINUTES value: %s, using default 5 minutes", c.CompanyIndexTTLMins)
		return 5 * time.Minute
	}

	return time.Duration(minutes) * time.Minute
}

// GetIndexWarmInterval returns how often the background warm job refreshes
// the company-name index.
func (c *Config) GetIndexWarmInterval() time.Duration {
	if c.IndexWarmIntervalMin == "" {
		return 5 * time.Minute
	}

	minutes, err := strconv.Atoi(c.IndexWarmIntervalMin)
	if err != nil || minutes <= 0 {
		logrus.Warnf("Invalid INDEX_WARM_INTERVAL_MINUTES value: %s, using default 5 minutes", c.IndexWarmIntervalMin)
		return 5 * time.Minute
	}

	return time.Duration(minutes) * time.Minute
}

// GetHTTPTimeout returns the outbound HTTP timeout for platform calls. Audit
// generation is a long-running LLM call, so the default is generous.
func (c *Config) GetHTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds == "" {
		return 120 * time.Second
	}

	seconds, err := strconv.Atoi(c.HTTPTimeoutSeconds)
	if err != nil || seconds <= 0 {
		logrus.Warnf("Invalid HTTP_TIMEOUT_SECONDS value: %s, using default 120 seconds", c.HTTPTimeoutSeconds)
		return 120 * time.Second
	}

	return time.Duration(seconds) * time.Second
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		PlatformBaseURL:      getEnv("PLATFORM_BASE_URL", "https://app.base44.com"),
		PlatformAppID:        getEnv("PLATFORM_APP_ID", ""),
		PlatformAPIKey:       getEnv("PLATFORM_API_KEY", ""),
		CompanyIndexTTLMins:  getEnv("COMPANY_INDEX_TTL_MINUTES", "5"),
		IndexWarmIntervalMin: getEnv("INDEX_WARM_INTERVAL_MINUTES", "5"),
		HTTPTimeoutSeconds:   getEnv("HTTP_TIMEOUT_SECONDS", "120"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
