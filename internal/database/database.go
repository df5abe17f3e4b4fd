// Пакет database — подключение к PostgreSQL через pgxpool,
// применение миграций (golang-migrate) и проверка готовности.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bigkaa/goartstore/image-module/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUnavailable — PostgreSQL недоступен (не удалось установить соединение).
var ErrUnavailable = errors.New("PostgreSQL недоступен")

// Connect создаёт пул подключений к PostgreSQL.
// Выполняет ping для проверки доступности.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка создания пула подключений: %v", ErrUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	logger.Info("Подключение к PostgreSQL установлено",
		slog.String("host", cfg.DBHost),
		slog.Int("port", cfg.DBPort),
		slog.String("database", cfg.DBName),
	)

	return pool, nil
}

// Migrate применяет SQL-миграции из embedded FS к базе данных.
// Идемпотентна: повторный вызов без новых миграций не является ошибкой.
func Migrate(cfg *config.Config, logger *slog.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("ошибка создания источника миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.DatabaseURL("pgx5"))
	if err != nil {
		return fmt.Errorf("%w: ошибка инициализации миграций: %v", ErrUnavailable, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Миграции применены",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)

	return nil
}

// ReadinessChecker — проверка готовности PostgreSQL для health endpoints.
type ReadinessChecker struct {
	pool *pgxpool.Pool
}

// NewReadinessChecker создаёт проверку готовности PostgreSQL.
func NewReadinessChecker(pool *pgxpool.Pool) *ReadinessChecker {
	return &ReadinessChecker{pool: pool}
}

// CheckReady проверяет подключение к PostgreSQL через ping.
// Возвращает статус ("ok", "fail") и сообщение.
func (c *ReadinessChecker) CheckReady() (status string, message string) {
	if c == nil || c.pool == nil {
		return "fail", "пул подключений не инициализирован"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.pool.Ping(ctx); err != nil {
		return "fail", fmt.Sprintf("PostgreSQL недоступен: %v", err)
	}
	return "ok", "подключение активно"
}

// Diagnostics — результат диагностики базы данных (команда dbcheck).
type Diagnostics struct {
	ServerVersion string
	TableExists   bool
	ImageCount    int64
}

// Diagnose выполняет проверочные запросы: версия сервера, наличие
// таблицы images и количество записей в ней.
func Diagnose(ctx context.Context, pool *pgxpool.Pool) (*Diagnostics, error) {
	d := &Diagnostics{}

	if err := pool.QueryRow(ctx, `SELECT version()`).Scan(&d.ServerVersion); err != nil {
		return nil, fmt.Errorf("ошибка получения версии PostgreSQL: %w", err)
	}

	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = 'images'
		)`).Scan(&d.TableExists)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки таблицы images: %w", err)
	}

	if d.TableExists {
		if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM images`).Scan(&d.ImageCount); err != nil {
			return nil, fmt.Errorf("ошибка подсчёта изображений: %w", err)
		}
	}

	return d, nil
}
