package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds application configuration
type Config struct {
	BotToken string
	DBConn   string
	LogLevel string
	Timezone string
	Port     string

	// Optional SMTP settings for ops alerts; alerts are disabled when AlertEmail is empty
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
	AlertEmail   string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		BotToken:      os.Getenv("BOT_TOKEN"),
		DBConn:        getEnv("DB_CONN", "host=localhost port=5432 user=test password=test dbname=debts sslmode=disable"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		Timezone:      getEnv("TIMEZONE", "Asia/Tehran"),
		Port:          getEnv("PORT", "8080"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SenderEmail:   os.Getenv("SENDER_EMAIL"),
		AlertEmail:    os.Getenv("ALERT_EMAIL"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required: set it to your bot token (export BOT_TOKEN='your_bot_token_here')")
	}
	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("TIMEZONE %q is invalid: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// Location returns the reference timezone used for all day-count computations.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		// Validated in NewConfig.
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
