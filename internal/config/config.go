package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "whatsapp-bot-educational-service"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultServiceName    = "whatsapp-students-webhook"
	defaultShutdownDelay  = 10 * time.Second
	defaultForwardTimeout = 30 * time.Second

	forwardSecondsEnvVar   = "FORWARD_TIMEOUT_SECONDS"
	forwardDurationEnvVar  = "FORWARD_TIMEOUT"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName     string
	AppEnv      string
	Port        string
	LogLevel    string
	ServiceName string

	// WebhookVerifyToken is the process-wide secret used for the Meta
	// subscription handshake and as the fallback edit-auth secret for
	// records that never set their own.
	WebhookVerifyToken string

	// AppSecret enables X-Hub-Signature-256 verification when set.
	AppSecret string

	// PublicBaseURL is the externally visible base of this service, shown
	// on success pages so students can paste the webhook URL into Meta.
	PublicBaseURL string

	RedisURL    string
	DatabaseURL string

	ForwardTimeout time.Duration
	ShutdownPeriod time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:            getEnv("APP_NAME", defaultAppName),
		AppEnv:             getEnv("APP_ENV", defaultAppEnv),
		Port:               getEnv("PORT", defaultPort),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		ServiceName:        getEnv("SERVICE_NAME", defaultServiceName),
		WebhookVerifyToken: os.Getenv("WEBHOOK_VERIFY_TOKEN"),
		AppSecret:          os.Getenv("WHATSAPP_APP_SECRET"),
		PublicBaseURL:      strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		RedisURL:           os.Getenv("REDIS_URL"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		ForwardTimeout:     defaultForwardTimeout,
		ShutdownPeriod:     defaultShutdownDelay,
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv(forwardSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", forwardSecondsEnvVar, err)
		}
		cfg.ForwardTimeout = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(forwardDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", forwardDurationEnvVar, err)
		}
		cfg.ForwardTimeout = d
	}

	if cfg.WebhookVerifyToken == "" {
		return Config{}, fmt.Errorf("WEBHOOK_VERIFY_TOKEN must be set")
	}

	if !cfg.IsDev() && cfg.RedisURL == "" && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL or DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a development environment, where
// the in-memory store is an acceptable fallback.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
