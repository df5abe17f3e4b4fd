// Пакет config — загрузка и валидация конфигурации Image Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "1.0.0"

// Config содержит все параметры конфигурации Image Module.
type Config struct {
	// --- Сервер ---

	// Адрес, на котором слушает HTTP-сервер
	Host string `validate:"required"`
	// Порт HTTP-сервера
	Port int `validate:"min=1,max=65535"`
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string `validate:"oneof=json text"`

	// --- PostgreSQL ---

	DBHost string `validate:"required"`
	DBPort int    `validate:"min=1,max=65535"`
	DBName string `validate:"required"`
	DBUser string `validate:"required"`
	// Пароль пользователя PostgreSQL (по умолчанию пустой, без встроенных секретов)
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string `validate:"oneof=disable require verify-ca verify-full"`

	// --- Хранилище изображений ---

	// Директория для файлов изображений
	UploadDir string `validate:"required"`
	// Максимальный размер загружаемого файла в байтах
	MaxFileSize int64 `validate:"gt=0"`

	// --- Кэш метаданных ---

	// Максимальное количество записей в LRU-кэше (0 — кэш отключён)
	CacheSize int `validate:"gte=0"`
	// Время жизни записи в кэше
	CacheTTL time.Duration `validate:"gt=0"`

	// --- CORS ---

	// Разрешённые источники (через запятую, "*" — любые)
	CORSAllowedOrigins []string `validate:"min=1"`

	// --- topologymetrics ---

	// Имя группы в метриках зависимостей
	DephealthGroup string `validate:"required"`
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration `validate:"gt=0"`

	// --- HTTP Server Timeouts ---

	HTTPReadTimeout  time.Duration `validate:"gt=0"`
	HTTPWriteTimeout time.Duration `validate:"gt=0"`
	HTTPIdleTimeout  time.Duration `validate:"gt=0"`

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// Load загружает конфигурацию из переменных окружения, валидирует
// значения и возвращает Config или ошибку. Все параметры имеют значения
// по умолчанию.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// IM_HOST — адрес HTTP-сервера (по умолчанию 0.0.0.0)
	cfg.Host = getEnvDefault("IM_HOST", "0.0.0.0")

	// IM_PORT — порт HTTP-сервера (по умолчанию 8000)
	cfg.Port, err = getEnvInt("IM_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("IM_PORT: %w", err)
	}

	// IM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("IM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("IM_LOG_LEVEL: %w", err)
	}

	// IM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("IM_LOG_FORMAT", "json")

	// --- PostgreSQL ---

	cfg.DBHost = getEnvDefault("IM_DB_HOST", "localhost")

	cfg.DBPort, err = getEnvInt("IM_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("IM_DB_PORT: %w", err)
	}

	cfg.DBName = getEnvDefault("IM_DB_NAME", "images")
	cfg.DBUser = getEnvDefault("IM_DB_USER", "postgres")
	cfg.DBPassword = os.Getenv("IM_DB_PASSWORD")
	cfg.DBSSLMode = getEnvDefault("IM_DB_SSL_MODE", "disable")

	// --- Хранилище изображений ---

	// IM_UPLOAD_DIR — директория файлов (по умолчанию ./images)
	cfg.UploadDir = getEnvDefault("IM_UPLOAD_DIR", "./images")

	// IM_MAX_FILE_SIZE — максимальный размер файла (по умолчанию 10 MB)
	cfg.MaxFileSize, err = getEnvInt64("IM_MAX_FILE_SIZE", 10*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("IM_MAX_FILE_SIZE: %w", err)
	}

	// --- Кэш метаданных ---

	cfg.CacheSize, err = getEnvInt("IM_CACHE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("IM_CACHE_SIZE: %w", err)
	}
	cfg.CacheTTL, err = getEnvDuration("IM_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("IM_CACHE_TTL: %w", err)
	}

	// --- CORS ---

	cfg.CORSAllowedOrigins = parseCSV(getEnvDefault("IM_CORS_ALLOWED_ORIGINS", "*"))

	// --- topologymetrics ---

	cfg.DephealthGroup = getEnvDefault("IM_DEPHEALTH_GROUP", "image-module")
	cfg.DephealthCheckInterval, err = getEnvDuration("IM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("IM_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IM_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("IM_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IM_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("IM_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IM_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("IM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IM_SHUTDOWN_TIMEOUT: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет значения конфигурации по validate-тегам.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("некорректная конфигурация: %w", err)
	}
	return nil
}

// Addr возвращает адрес HTTP-сервера в формате host:port.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате key=value.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password='%s' sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, escapeDSNValue(c.DBPassword), c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL со схемой scheme
// ("postgres" для метрик, "pgx5" для golang-migrate).
// Пароль экранируется, поэтому спецсимволы допустимы.
func (c *Config) DatabaseURL(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	if c.DBPassword == "" {
		u.User = url.User(c.DBUser)
	}
	return u.String()
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

// getEnvInt64 возвращает int64 из переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
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

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// escapeDSNValue экранирует значение для DSN формата key='value'.
func escapeDSNValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
