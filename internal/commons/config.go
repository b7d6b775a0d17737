package commons

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"backoffice/internal/config"
)

// fileConfig mirrors config.Config with string durations so values like
// "5m" are accepted in YAML.
type fileConfig struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		User            string `yaml:"user"`
		Password        string `yaml:"password"`
		Name            string `yaml:"name"`
		MaxOpenConns    int    `yaml:"maxOpenConns"`
		MaxIdleConns    int    `yaml:"maxIdleConns"`
		ConnMaxLifetime string `yaml:"connMaxLifetime"`
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret"`
	} `yaml:"auth"`
	Order struct {
		TransitionTxTimeout string `yaml:"transitionTxTimeout"`
		MaxRetryAttempts    int    `yaml:"maxRetryAttempts"`
	} `yaml:"order"`
	Invoice struct {
		DueDays int `yaml:"dueDays"`
	} `yaml:"invoice"`
}

// LoadConfig reads a YAML config file when path is non-empty, otherwise it
// falls back to environment variables.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	connMaxLifetime, err := parseDuration(fc.Database.ConnMaxLifetime, 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("parsing database.connMaxLifetime: %w", err)
	}

	txTimeout, err := parseDuration(fc.Order.TransitionTxTimeout, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("parsing order.transitionTxTimeout: %w", err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port: fc.Server.Port,
		},
		Database: config.DatabaseConfig{
			Host:            fc.Database.Host,
			Port:            fc.Database.Port,
			User:            fc.Database.User,
			Password:        fc.Database.Password,
			Name:            fc.Database.Name,
			MaxOpenConns:    fc.Database.MaxOpenConns,
			MaxIdleConns:    fc.Database.MaxIdleConns,
			ConnMaxLifetime: connMaxLifetime,
		},
		Log: config.LogConfig{
			Level: fc.Log.Level,
		},
		Auth: config.AuthConfig{
			JWTSecret: fc.Auth.JWTSecret,
		},
		Order: config.OrderConfig{
			TransitionTxTimeout: txTimeout,
			MaxRetryAttempts:    fc.Order.MaxRetryAttempts,
		},
		Invoice: config.InvoiceConfig{
			DueDays: fc.Invoice.DueDays,
		},
	}

	if cfg.Order.MaxRetryAttempts <= 0 {
		cfg.Order.MaxRetryAttempts = 3
	}
	if cfg.Invoice.DueDays <= 0 {
		cfg.Invoice.DueDays = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseDuration(s)
}
