// Package app собирает зависимости сервиса и управляет его жизненным циклом.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config описывает настройки сервиса. Значения берутся из YAML-файла
// и переопределяются переменными окружения с префиксом ECOM_
// (вложенность через __, например ECOM_POSTGRES__DSN).
type Config struct {
	App struct {
		Name        string `koanf:"name"`
		HTTPAddr    string `koanf:"http_addr"`
		MetricsAddr string `koanf:"metrics_addr"`
		LogLevel    string `koanf:"log_level"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout    time.Duration `koanf:"read_timeout"`
		WriteTimeout   time.Duration `koanf:"write_timeout"`
		IdleTimeout    time.Duration `koanf:"idle_timeout"`
		RequestTimeout time.Duration `koanf:"request_timeout"`
	} `koanf:"http"`

	// Postgres.DSN пустой означает работу на in-memory хранилище.
	Postgres struct {
		DSN string `koanf:"dsn"`
	} `koanf:"postgres"`

	// Kafka.Brokers пустой означает работу без публикации событий.
	Kafka struct {
		Brokers []string `koanf:"brokers"`
	} `koanf:"kafka"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		TokenTTL  time.Duration `koanf:"token_ttl"`
	} `koanf:"security"`

	Idempotency struct {
		TTL              time.Duration `koanf:"ttl"`
		CleanupInterval  time.Duration `koanf:"cleanup_interval"`
		CleanupBatchSize int           `koanf:"cleanup_batch_size"`
	} `koanf:"idempotency"`
}

// DefaultConfig возвращает конфигурацию с рабочими значениями по умолчанию.
func DefaultConfig() Config {
	var cfg Config
	cfg.App.Name = "ecom"
	cfg.App.HTTPAddr = ":8080"
	cfg.App.MetricsAddr = ":9090"
	cfg.App.LogLevel = "info"
	cfg.HTTP.ReadTimeout = 10 * time.Second
	cfg.HTTP.WriteTimeout = 10 * time.Second
	cfg.HTTP.IdleTimeout = 60 * time.Second
	cfg.HTTP.RequestTimeout = 5 * time.Second
	cfg.Security.TokenTTL = 24 * time.Hour
	cfg.Idempotency.TTL = 24 * time.Hour
	cfg.Idempotency.CleanupInterval = time.Hour
	cfg.Idempotency.CleanupBatchSize = 500
	return cfg
}

// LoadConfig читает конфигурацию: файл опционален, окружение поверх него.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("ECOM_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "ECOM_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет обязательные поля конфигурации.
func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.App.MetricsAddr == "" {
		return fmt.Errorf("app.metrics_addr required")
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret required")
	}
	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("security.token_ttl must be positive")
	}
	return nil
}
