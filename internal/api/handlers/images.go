// images.go — обработчики загрузки, чтения и удаления изображений.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	apierrors "github.com/bigkaa/goartstore/image-module/internal/api/errors"
	"github.com/bigkaa/goartstore/image-module/internal/domain/model"
	"github.com/bigkaa/goartstore/image-module/internal/service"
)

const (
	// multipartOverhead — запас на заголовки и текстовые поля multipart сверх размера файла.
	multipartOverhead = 1 << 20
	// multipartMemory — объём формы в памяти, остальное во временных файлах.
	multipartMemory = 8 << 20
)

// uploadResponse — ответ на успешную загрузку.
type uploadResponse struct {
	Message    string    `json:"message"`
	ImageID    int64     `json:"image_id"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// imageListResponse — список изображений.
type imageListResponse struct {
	Message string               `json:"message"`
	Count   int                  `json:"count"`
	Images  []*model.ImageRecord `json:"images"`
}

// imageResponse — метаданные одного изображения.
type imageResponse struct {
	Message string             `json:"message"`
	Image   *model.ImageRecord `json:"image"`
}

// deleteResponse — ответ на успешное удаление.
type deleteResponse struct {
	Message string `json:"message"`
	ImageID int64  `json:"image_id"`
}

// UploadImage — загрузка изображения (multipart: file, description, location).
// Тело запроса ограничено MaxFileSize с запасом на multipart-заголовки.
func (h *APIHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	maxSize := h.images.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.FileTooLarge(w, tooLargeMessage(maxSize))
			return
		}
		h.logger.Warn("Некорректное multipart-тело запроса",
			slog.String("content_type", r.Header.Get("Content-Type")),
			slog.String("error", err.Error()),
		)
		apierrors.ValidationError(w, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Field 'file' is required")
		return
	}
	defer file.Close()

	img, err := h.images.Upload(r.Context(), service.UploadParams{
		Reader:      file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooLarge):
			apierrors.FileTooLarge(w, tooLargeMessage(maxSize))
		case errors.Is(err, service.ErrNotImage):
			apierrors.NotImage(w, "File must be an image")
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, "Field 'file' is required")
		case errors.Is(err, service.ErrWrite):
			apierrors.InternalError(w, "Failed to save image metadata")
		default:
			apierrors.InternalError(w, "Upload failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:    "Image uploaded successfully",
		ImageID:    img.ID,
		Filename:   img.Filename,
		Path:       img.Path,
		UploadedAt: img.UploadedAt,
	})
}

// ListImages — метаданные всех изображений, новые первыми.
func (h *APIHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.images.List(r.Context())
	if err != nil {
		apierrors.InternalError(w, "Failed to retrieve images")
		return
	}
	if images == nil {
		images = []*model.ImageRecord{}
	}

	writeJSON(w, http.StatusOK, imageListResponse{
		Message: "Images retrieved successfully",
		Count:   len(images),
		Images:  images,
	})
}

// GetImage — метаданные по числовому id. Нечисловое значение — имя файла
// на диске: файл отдаётся как есть (сгенерированные имена всегда содержат
// не только цифры).
func (h *APIHandler) GetImage(w http.ResponseWriter, r *http.Request, imageRef string) {
	id, err := strconv.ParseInt(imageRef, 10, 64)
	if err != nil {
		h.serveImageFile(w, r, imageRef)
		return
	}

	img, err := h.images.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Image not found")
			return
		}
		apierrors.InternalError(w, "Failed to retrieve image")
		return
	}

	writeJSON(w, http.StatusOK, imageResponse{
		Message: "Image retrieved successfully",
		Image:   img,
	})
}

// DeleteImage — удаление изображения и его метаданных.
func (h *APIHandler) DeleteImage(w http.ResponseWriter, r *http.Request, imageID int64) {
	if err := h.images.Delete(r.Context(), imageID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Image not found")
			return
		}
		apierrors.InternalError(w, "Failed to delete image")
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{
		Message: "Image deleted successfully",
		ImageID: imageID,
	})
}

// serveImageFile отдаёт файл изображения без преобразований.
// Content-Type определяется по расширению, поддерживаются Range и If-Modified-Since.
func (h *APIHandler) serveImageFile(w http.ResponseWriter, r *http.Request, name string) {
	f, err := h.images.OpenFile(name)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Not Found")
			return
		}
		h.logger.Error("Ошибка открытия файла изображения",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Failed to read image file")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		apierrors.InternalError(w, "Failed to read image file")
		return
	}

	http.ServeContent(w, r, name, info.ModTime(), f)
}

// tooLargeMessage — сообщение об ошибке 413.
func tooLargeMessage(maxSize int64) string {
	return fmt.Sprintf("File too large. Maximum size is %d bytes", maxSize)
}
