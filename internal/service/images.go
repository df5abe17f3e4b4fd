// images.go — сервис изображений: загрузка, чтение и удаление.
// Координирует запись файла на диск и метаданных в PostgreSQL.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/image-module/internal/domain/model"
	"github.com/bigkaa/goartstore/image-module/internal/repository"
	"github.com/bigkaa/goartstore/image-module/internal/storage/filestore"
)

// Исходы загрузки для метрики im_uploads_total.
const (
	uploadResultOK        = "ok"
	uploadResultTooLarge  = "too_large"
	uploadResultNotImage  = "not_image"
	uploadResultIOError   = "io_error"
	uploadResultDBError   = "db_error"
	uploadResultCancelled = "cancelled"
)

// Метрики загрузок
var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "im_uploads_total",
			Help: "Общее количество загрузок изображений по результату",
		},
		[]string{"result"},
	)

	uploadedBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "im_uploaded_bytes_total",
		Help: "Общий объём успешно загруженных изображений в байтах",
	})

	orphanCleanupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "im_orphan_cleanups_total",
		Help: "Количество удалений файла после неудачной записи метаданных",
	})
)

// Статусы БД для health endpoint.
const (
	DatabaseConnected    = "connected"
	DatabaseDisconnected = "disconnected"
)

// ReadinessChecker — проверка доступности PostgreSQL.
// Реализуется database.ReadinessChecker.
type ReadinessChecker interface {
	CheckReady() (status string, message string)
}

// UploadParams — параметры загрузки изображения.
type UploadParams struct {
	// Reader — поток данных файла
	Reader io.Reader
	// Filename — оригинальное имя файла клиента (может быть пустым)
	Filename string
	// ContentType — MIME-тип, заявленный клиентом
	ContentType string
	// Size — размер файла, заявленный клиентом
	Size int64
	// Description — описание (опционально)
	Description string
	// Location — место съёмки (опционально)
	Location string
}

// ImageService — бизнес-логика работы с изображениями.
type ImageService struct {
	repo        repository.ImageRepository
	store       *filestore.FileStore
	db          ReadinessChecker
	maxFileSize int64
	logger      *slog.Logger
}

// NewImageService создаёт сервис изображений.
func NewImageService(
	repo repository.ImageRepository,
	store *filestore.FileStore,
	db ReadinessChecker,
	maxFileSize int64,
	logger *slog.Logger,
) *ImageService {
	return &ImageService{
		repo:        repo,
		store:       store,
		db:          db,
		maxFileSize: maxFileSize,
		logger:      logger.With(slog.String("component", "image_service")),
	}
}

// MaxFileSize возвращает максимальный размер загружаемого файла в байтах.
func (s *ImageService) MaxFileSize() int64 {
	return s.maxFileSize
}

// Upload сохраняет изображение на диск и записывает метаданные.
//
// Поток:
//  1. Проверка заявленного размера и MIME-типа
//  2. Сохранение файла под сгенерированным именем
//  3. Insert метаданных
//
// Файл всегда записывается до строки в БД. Если Insert не удался,
// файл удаляется до возврата ошибки.
func (s *ImageService) Upload(ctx context.Context, params UploadParams) (*model.ImageRecord, error) {
	if params.Reader == nil {
		return nil, fmt.Errorf("%w: файл не передан", ErrValidation)
	}

	if params.Size > s.maxFileSize {
		uploadsTotal.WithLabelValues(uploadResultTooLarge).Inc()
		return nil, fmt.Errorf("%w: %d байт при максимуме %d", ErrFileTooLarge, params.Size, s.maxFileSize)
	}

	if !strings.HasPrefix(params.ContentType, "image/") {
		uploadsTotal.WithLabelValues(uploadResultNotImage).Inc()
		return nil, fmt.Errorf("%w: content type %q", ErrNotImage, params.ContentType)
	}

	if err := ctx.Err(); err != nil {
		uploadsTotal.WithLabelValues(uploadResultCancelled).Inc()
		return nil, err
	}

	ext := filestore.ExtFromFilename(params.Filename)
	name, size, err := s.store.Save(params.Reader, ext, s.maxFileSize)
	if err != nil {
		if errors.Is(err, filestore.ErrTooLarge) {
			uploadsTotal.WithLabelValues(uploadResultTooLarge).Inc()
			return nil, fmt.Errorf("%w: данные превысили %d байт", ErrFileTooLarge, s.maxFileSize)
		}
		uploadsTotal.WithLabelValues(uploadResultIOError).Inc()
		s.logger.Error("Ошибка сохранения файла",
			slog.String("filename", params.Filename),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	filename := params.Filename
	if filename == "" {
		filename = name
	}

	img, err := s.repo.Insert(ctx, filename, params.Description, params.Location, model.PublicPath(name))
	if err != nil {
		uploadsTotal.WithLabelValues(uploadResultDBError).Inc()
		s.logger.Error("Ошибка записи метаданных, удаление файла",
			slog.String("storage_name", name),
			slog.String("error", err.Error()),
		)
		if delErr := s.store.Delete(name); delErr != nil {
			s.logger.Error("Не удалось удалить файл после ошибки записи метаданных",
				slog.String("storage_name", name),
				slog.String("error", delErr.Error()),
			)
		} else {
			orphanCleanupsTotal.Inc()
		}
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	uploadsTotal.WithLabelValues(uploadResultOK).Inc()
	uploadedBytesTotal.Add(float64(size))

	s.logger.Info("Изображение загружено",
		slog.Int64("image_id", img.ID),
		slog.String("filename", img.Filename),
		slog.String("storage_name", name),
		slog.Int64("size", size),
	)

	return img, nil
}

// List возвращает метаданные всех изображений, новые первыми.
func (s *ImageService) List(ctx context.Context) ([]*model.ImageRecord, error) {
	images, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Ошибка получения списка изображений", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.logger.Debug("Список изображений получен", slog.Int("count", len(images)))
	return images, nil
}

// Get возвращает метаданные изображения по id.
func (s *ImageService) Get(ctx context.Context, id int64) (*model.ImageRecord, error) {
	img, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		s.logger.Error("Ошибка получения изображения",
			slog.Int64("image_id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return img, nil
}

// Delete удаляет метаданные изображения и его файл.
// Ошибка удаления файла только логируется: запись в БД уже удалена.
func (s *ImageService) Delete(ctx context.Context, id int64) error {
	img, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("Ошибка удаления метаданных",
			slog.Int64("image_id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if !removed {
		// Запись удалена параллельным запросом
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	if err := s.store.Delete(img.StorageName()); err != nil {
		s.logger.Warn("Не удалось удалить файл изображения",
			slog.Int64("image_id", id),
			slog.String("path", img.Path),
			slog.String("error", err.Error()),
		)
	} else {
		s.logger.Info("Изображение удалено",
			slog.Int64("image_id", id),
			slog.String("path", img.Path),
		)
	}

	return nil
}

// OpenFile открывает файл изображения по имени на диске для отдачи клиенту.
// Вызывающий код обязан закрыть файл.
func (s *ImageService) OpenFile(name string) (*os.File, error) {
	f, err := s.store.Open(name)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) || errors.Is(err, filestore.ErrInvalidName) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return f, nil
}

// DatabaseStatus возвращает состояние подключения к БД:
// DatabaseConnected или DatabaseDisconnected. Никогда не возвращает ошибку.
func (s *ImageService) DatabaseStatus() string {
	if s.db == nil {
		return DatabaseDisconnected
	}
	if status, _ := s.db.CheckReady(); status == "ok" {
		return DatabaseConnected
	}
	return DatabaseDisconnected
}
