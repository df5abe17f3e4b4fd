package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/bigkaa/goartstore/image-module/internal/api/handlers"
	"github.com/bigkaa/goartstore/image-module/internal/api/openapi"
	"github.com/bigkaa/goartstore/image-module/internal/config"
	"github.com/bigkaa/goartstore/image-module/internal/database"
	"github.com/bigkaa/goartstore/image-module/internal/repository"
	"github.com/bigkaa/goartstore/image-module/internal/server"
	"github.com/bigkaa/goartstore/image-module/internal/service"
	"github.com/bigkaa/goartstore/image-module/internal/storage/filestore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запуск HTTP API",
	Long: `Запуск HTTP API Image Module.

Порядок запуска:
  1. Применение миграций БД (идемпотентно)
  2. Подключение к PostgreSQL
  3. Инициализация директории загрузок
  4. Запуск мониторинга зависимостей и HTTP-сервера

Завершение по SIGINT/SIGTERM с graceful shutdown.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	logger.Info("Image Module запускается",
		slog.String("version", config.Version),
		slog.String("addr", cfg.Addr()),
	)

	if cfg.DBPassword == "" {
		logger.Warn("IM_DB_PASSWORD не задан, подключение к PostgreSQL без пароля")
	}
	if os.Getenv("IM_DEPHEALTH_GROUP") == "" {
		logger.Warn("IM_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 1. Миграции
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		return fmt.Errorf("миграции БД: %w", err)
	}

	// 2. PostgreSQL
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("подключение к PostgreSQL: %w", err)
	}
	defer pool.Close()

	// Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 3. Файловое хранилище
	store, err := filestore.New(cfg.UploadDir)
	if err != nil {
		return err
	}

	// 4. Repository (+ LRU-кэш записей)
	var repo repository.ImageRepository = repository.NewImageRepository(pool)
	if cfg.CacheSize > 0 {
		repo = repository.NewCachedImageRepository(repo, cfg.CacheSize, cfg.CacheTTL)
		logger.Info("Кэш метаданных включён",
			slog.Int("size", cfg.CacheSize),
			slog.String("ttl", cfg.CacheTTL.String()),
		)
	}

	// 5. Service
	pgChecker := database.NewReadinessChecker(pool)
	imageSvc := service.NewImageService(repo, store, pgChecker, cfg.MaxFileSize, logger)

	// 6. OpenAPI документ
	doc, err := openapi.Load(ctx)
	if err != nil {
		return err
	}
	specHandler, err := openapi.Handler(doc)
	if err != nil {
		return err
	}

	// 7. Handlers
	healthHandler := handlers.NewHealthHandler(imageSvc, pgChecker)
	apiHandler := handlers.NewAPIHandler(healthHandler, imageSvc, specHandler, logger)

	// 8. topologymetrics — мониторинг PostgreSQL
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthParams{
		ServiceID:     "image-module",
		Group:         cfg.DephealthGroup,
		DB:            pgDB,
		URL:           cfg.DatabaseURL("postgres"),
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
		dephealthSvc = nil
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	logBanner(store)

	// 9. HTTP-сервер
	srv := server.New(cfg, logger, apiHandler)
	runErr := srv.Run(ctx)

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	logger.Info("Image Module остановлен")

	return runErr
}

// logBanner выводит в лог адреса endpoints и параметры хранилища.
func logBanner(store *filestore.FileStore) {
	base := "http://" + cfg.Addr()
	logger.Info("ESP32-CAM Image Upload API",
		slog.String("upload", base+"/upload"),
		slog.String("images", base+"/images"),
		slog.String("health", base+"/health"),
		slog.String("openapi", base+"/openapi.json"),
		slog.String("upload_dir", store.DataDir()),
		slog.Int64("max_file_size", cfg.MaxFileSize),
	)
}
