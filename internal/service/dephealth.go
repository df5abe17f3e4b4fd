// dephealth.go — мониторинг PostgreSQL через topologymetrics.
// Метрики app_dependency_* публикуются на /metrics.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"
	"github.com/prometheus/client_golang/prometheus"
)

// postgresDependency — имя зависимости в метриках и в Health().
const postgresDependency = "postgresql"

// DephealthParams — параметры мониторинга хранилища метаданных.
type DephealthParams struct {
	// ServiceID — имя вершины графа ("image-module")
	ServiceID string
	Group     string
	// DB — *sql.DB поверх общего pgxpool (stdlib.OpenDBFromPool)
	DB *sql.DB
	// URL используется только для лейблов host/port
	URL           string
	CheckInterval time.Duration
	// Registerer — nil означает глобальный registry
	Registerer prometheus.Registerer
}

// DephealthService — периодическая проверка PostgreSQL.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService регистрирует проверку PostgreSQL. Пул не открывает
// новых соединений: pgcheck использует переданный *sql.DB.
func NewDephealthService(p DephealthParams, logger *slog.Logger) (*DephealthService, error) {
	if p.DB == nil {
		return nil, errors.New("dephealth: не передано подключение к PostgreSQL")
	}

	opts := []dephealth.Option{
		dephealth.WithLogger(logger),
		dephealth.AddDependency(postgresDependency, dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(p.DB)),
			dephealth.FromURL(p.URL),
			dephealth.CheckInterval(p.CheckInterval),
			dephealth.Critical(true),
		),
	}
	if p.Registerer != nil {
		opts = append(opts, dephealth.WithRegisterer(p.Registerer))
	}

	dh, err := dephealth.New(p.ServiceID, p.Group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Проверка PostgreSQL через topologymetrics запущена")
	return ds.dh.Start(ctx)
}

func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Проверка PostgreSQL через topologymetrics остановлена")
}

// Health — последнее состояние зависимостей по имени (true = ok).
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
