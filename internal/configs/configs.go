/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures the chat server by reading operating system environment variables: the running
environment, the chat and admin ports, CORS allowed origins, the admin token secret, and the
connection hardening limits (session cap, per-IP connect rate, timeouts, queue and line sizes).
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DevelopmentAdminSecret is used as ADMIN_SECRET when none is set in development.
const DevelopmentAdminSecret = "your_default_insecure_secret_key_change_me"

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	ChatPort    int
	AdminPort   int // 0 disables the admin HTTP listener

	// Security Settings
	AllowedOrigins []string
	AdminSecret    string

	// Connection Settings
	MaxSessions    int // 0 means unlimited
	ConnectRate    float64
	ConnectBurst   int
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration // 0 disables the read deadline
	SendQueueSize  int
	MaxLineBytes   int
	MaxNicknameLen int
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary type conversions and validation.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.ChatPort, err = envInt("CHAT_PORT", 8888); err != nil {
		return nil, err
	}
	if err := validatePort("CHAT_PORT", cfg.ChatPort); err != nil {
		return nil, err
	}

	if cfg.AdminPort, err = envInt("ADMIN_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.AdminPort != 0 {
		if err := validatePort("ADMIN_PORT", cfg.AdminPort); err != nil {
			return nil, err
		}
		if cfg.AdminPort == cfg.ChatPort {
			return nil, fmt.Errorf("ADMIN_PORT and CHAT_PORT must differ (both %d)", cfg.ChatPort)
		}
	}

	// --- Security Settings ---
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	cfg.AllowedOrigins = []string{}
	for _, origin := range strings.Split(originsStr, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	cfg.AdminSecret = os.Getenv("ADMIN_SECRET")
	if cfg.AdminSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("ADMIN_SECRET environment variable is required in %s environment for security", cfg.Environment)
		}
		cfg.AdminSecret = DevelopmentAdminSecret
	}

	// --- Connection Settings ---
	if cfg.MaxSessions, err = envInt("MAX_SESSIONS", 1024); err != nil {
		return nil, err
	}
	if cfg.MaxSessions < 0 {
		return nil, fmt.Errorf("MAX_SESSIONS must not be negative, got %d", cfg.MaxSessions)
	}

	rateStr := os.Getenv("CONNECT_RATE")
	if rateStr == "" {
		rateStr = "2"
	}
	if cfg.ConnectRate, err = strconv.ParseFloat(rateStr, 64); err != nil {
		return nil, fmt.Errorf("invalid CONNECT_RATE environment variable: %w", err)
	}
	if cfg.ConnectRate <= 0 {
		return nil, fmt.Errorf("CONNECT_RATE must be positive, got %v", cfg.ConnectRate)
	}

	if cfg.ConnectBurst, err = envPositiveInt("CONNECT_BURST", 10); err != nil {
		return nil, err
	}

	if cfg.WriteTimeout, err = envDuration("WRITE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.WriteTimeout <= 0 {
		return nil, fmt.Errorf("WRITE_TIMEOUT must be positive, got %s", cfg.WriteTimeout)
	}

	if cfg.IdleTimeout, err = envDuration("IDLE_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.IdleTimeout < 0 {
		return nil, fmt.Errorf("IDLE_TIMEOUT must not be negative, got %s", cfg.IdleTimeout)
	}

	if cfg.SendQueueSize, err = envPositiveInt("SEND_QUEUE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.MaxLineBytes, err = envPositiveInt("MAX_LINE_BYTES", 8192); err != nil {
		return nil, err
	}
	if cfg.MaxNicknameLen, err = envPositiveInt("MAX_NICKNAME_LEN", 32); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func envPositiveInt(key string, def int) (int, error) {
	v, err := envInt(key, def)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, v)
	}
	return v, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func validatePort(key string, port int) error {
	if port < 1024 || port > 65535 {
		return fmt.Errorf("%s %d is outside the recommended range (%d-%d) to avoid privileged ports", key, port, 1024, 65535)
	}
	return nil
}
