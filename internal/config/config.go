// Пакет config — загрузка и валидация конфигурации сервиса expedientes
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации сервиса.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- UI-сессии ---

	// Ключ шифрования session cookie (пустой — случайный на каждый старт)
	SessionKey string
	// Время жизни UI-сессии
	SessionTTL time.Duration
	// Secure flag для cookie (true за HTTPS)
	CookieSecure bool

	// --- JWT для API ---

	// Секрет подписи HS256
	JWTSecret string
	// Время жизни access token
	JWTTTL time.Duration
	// Issuer (claim iss)
	JWTIssuer string

	// --- Кэш справочника зданий ---

	BuildingCacheTTL  time.Duration
	BuildingCacheSize int

	// --- topologymetrics ---

	// Группа в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// EX_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("EX_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("EX_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("EX_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("EX_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("EX_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("EX_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("EX_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	if err := cfg.loadDatabase(); err != nil {
		return nil, err
	}

	// --- UI-сессии ---

	cfg.SessionKey = getEnvDefault("EX_SESSION_KEY", "")

	cfg.SessionTTL, err = getEnvDuration("EX_SESSION_TTL", 12*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("EX_SESSION_TTL: %w", err)
	}
	if cfg.SessionTTL < time.Minute {
		return nil, fmt.Errorf("EX_SESSION_TTL: значение %s меньше минимального 1m", cfg.SessionTTL)
	}

	cfg.CookieSecure, err = getEnvBool("EX_COOKIE_SECURE", false)
	if err != nil {
		return nil, fmt.Errorf("EX_COOKIE_SECURE: %w", err)
	}

	// --- JWT ---

	// EX_JWT_SECRET — обязательный
	cfg.JWTSecret, err = getEnvRequired("EX_JWT_SECRET")
	if err != nil {
		return nil, err
	}
	if len(cfg.JWTSecret) < 16 {
		return nil, fmt.Errorf("EX_JWT_SECRET: секрет короче 16 символов")
	}

	cfg.JWTTTL, err = getEnvDuration("EX_JWT_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("EX_JWT_TTL: %w", err)
	}

	cfg.JWTIssuer = getEnvDefault("EX_JWT_ISSUER", "expedientes")

	// --- Кэш зданий ---

	cfg.BuildingCacheTTL, err = getEnvDuration("EX_BUILDING_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EX_BUILDING_CACHE_TTL: %w", err)
	}

	cfg.BuildingCacheSize, err = getEnvInt("EX_BUILDING_CACHE_SIZE", 16)
	if err != nil {
		return nil, fmt.Errorf("EX_BUILDING_CACHE_SIZE: %w", err)
	}
	if cfg.BuildingCacheSize < 1 {
		return nil, fmt.Errorf("EX_BUILDING_CACHE_SIZE: значение %d должно быть положительным", cfg.BuildingCacheSize)
	}

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("EX_DEPHEALTH_GROUP", "expedientes")

	cfg.DephealthCheckInterval, err = getEnvDuration("EX_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EX_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("EX_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EX_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// LoadDatabase загружает только параметры PostgreSQL.
// Используется CLI-утилитой, которой не нужны HTTP и JWT настройки.
func LoadDatabase() (*Config, error) {
	cfg := &Config{LogLevel: slog.LevelInfo, LogFormat: "text"}
	if err := cfg.loadDatabase(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadDatabase() error {
	var err error

	c.DBHost, err = getEnvRequired("EX_DB_HOST")
	if err != nil {
		return err
	}

	c.DBPort, err = getEnvInt("EX_DB_PORT", 5432)
	if err != nil {
		return fmt.Errorf("EX_DB_PORT: %w", err)
	}

	c.DBName, err = getEnvRequired("EX_DB_NAME")
	if err != nil {
		return err
	}

	c.DBUser, err = getEnvRequired("EX_DB_USER")
	if err != nil {
		return err
	}

	c.DBPassword, err = getEnvRequired("EX_DB_PASSWORD")
	if err != nil {
		return err
	}

	c.DBSSLMode = getEnvDefault("EX_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[c.DBSSLMode] {
		return fmt.Errorf("EX_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", c.DBSSLMode)
	}
	return nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL без пароля (для лейблов метрик).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
