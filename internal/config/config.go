package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Business  BusinessConfig  `mapstructure:"business"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SMTPConfig struct {
	Host        string `mapstructure:"SMTP_HOST"`
	Port        string `mapstructure:"SMTP_PORT"`
	Username    string `mapstructure:"SMTP_USERNAME"`
	Password    string `mapstructure:"SMTP_PASSWORD"`
	SenderEmail string `mapstructure:"SMTP_SENDER_EMAIL"`
}

type ProcessorConfig struct {
	BaseURL string `mapstructure:"PROCESSOR_BASE_URL"`
	APIKey  string `mapstructure:"PROCESSOR_API_KEY"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

// BusinessConfig carries the collection-policy knobs of the lifecycle engine.
type BusinessConfig struct {
	// MaxInstallmentCount caps the number of installments in a plan proposal.
	MaxInstallmentCount int `mapstructure:"MAX_INSTALLMENT_COUNT"`
	// GracePeriodDays is the default grace period after an installment's due
	// date before the plan is eligible for acceleration.
	GracePeriodDays int `mapstructure:"GRACE_PERIOD_DAYS"`
	// ReminderLeadDays is how far ahead of the due date reminders go out.
	ReminderLeadDays int `mapstructure:"REMINDER_LEAD_DAYS"`
	// OverdueAfterDays is how many days past due an installment must be
	// before it is marked overdue.
	OverdueAfterDays int `mapstructure:"OVERDUE_AFTER_DAYS"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_READ_TIMEOUT", "15s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("PROCESSOR_BASE_URL", "https://api.stripe.com")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("MAX_INSTALLMENT_COUNT", 12)
	viper.SetDefault("GRACE_PERIOD_DAYS", 5)
	viper.SetDefault("REMINDER_LEAD_DAYS", 3)
	viper.SetDefault("OVERDUE_AFTER_DAYS", 2)

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Business.MaxInstallmentCount <= 0 {
		return fmt.Errorf("MAX_INSTALLMENT_COUNT must be greater than 0")
	}

	if c.Business.GracePeriodDays < 0 {
		return fmt.Errorf("GRACE_PERIOD_DAYS must not be negative")
	}

	if c.Business.ReminderLeadDays <= 0 {
		return fmt.Errorf("REMINDER_LEAD_DAYS must be greater than 0")
	}

	if c.Business.OverdueAfterDays <= 0 {
		return fmt.Errorf("OVERDUE_AFTER_DAYS must be greater than 0")
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}
