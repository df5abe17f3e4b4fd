package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goartstore/image-module/internal/domain/model"
)

// ImageRepository — операции с таблицей images.
type ImageRepository interface {
	// Insert создаёт запись; id и uploaded_at назначаются сервером БД.
	Insert(ctx context.Context, filename, description, location, path string) (*model.ImageRecord, error)
	// List возвращает все записи, новые первыми.
	List(ctx context.Context) ([]*model.ImageRecord, error)
	// GetByID возвращает запись по id или ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.ImageRecord, error)
	// Delete удаляет запись и сообщает, была ли строка удалена.
	Delete(ctx context.Context, id int64) (bool, error)
}

const imageColumns = `id, filename, COALESCE(description, ''), COALESCE(location, ''),
	uploaded_at, COALESCE(path, '')`

// imageRepo — реализация ImageRepository поверх pgx.
type imageRepo struct {
	db DBTX
}

// NewImageRepository создаёт репозиторий метаданных изображений.
func NewImageRepository(db DBTX) ImageRepository {
	return &imageRepo{db: db}
}

func (r *imageRepo) Insert(ctx context.Context, filename, description, location, path string) (*model.ImageRecord, error) {
	query := `
		INSERT INTO images (filename, description, location, uploaded_at, path)
		VALUES ($1, $2, $3, NOW(), $4)
		RETURNING ` + imageColumns

	img, err := scanImage(r.db.QueryRow(ctx, query, filename, description, location, path))
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения метаданных изображения: %w", err)
	}
	return img, nil
}

func (r *imageRepo) List(ctx context.Context) ([]*model.ImageRecord, error) {
	query := `SELECT ` + imageColumns + `
		FROM images
		ORDER BY uploaded_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка изображений: %w", err)
	}
	defer rows.Close()

	result := make([]*model.ImageRecord, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования изображения: %w", err)
		}
		result = append(result, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения списка изображений: %w", err)
	}
	return result, nil
}

func (r *imageRepo) GetByID(ctx context.Context, id int64) (*model.ImageRecord, error) {
	query := `SELECT ` + imageColumns + `
		FROM images
		WHERE id = $1`

	img, err := scanImage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения изображения %d: %w", id, err)
	}
	return img, nil
}

func (r *imageRepo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("ошибка удаления изображения %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// scanImage сканирует строку в порядке imageColumns.
// uploaded_at (timestamptz) приводится к UTC независимо от TimeZone сессии.
func scanImage(row pgx.Row) (*model.ImageRecord, error) {
	img := &model.ImageRecord{}
	err := row.Scan(&img.ID, &img.Filename, &img.Description, &img.Location, &img.UploadedAt, &img.Path)
	if err != nil {
		return nil, err
	}
	img.UploadedAt = img.UploadedAt.UTC()
	return img, nil
}
