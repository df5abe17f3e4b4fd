// Пакет model — доменные модели Image Module.
package model

import (
	"path"
	"time"
)

// PublicPathPrefix — публичный префикс, по которому раздаются файлы изображений.
const PublicPathPrefix = "/images/"

// ImageRecord — метаданные загруженного изображения (строка таблицы images).
// Запись неизменяема после создания.
type ImageRecord struct {
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	UploadedAt  time.Time `json:"uploaded_at"`
	Path        string    `json:"path"`
}

// StorageName возвращает имя файла на диске, извлечённое из публичного пути.
func (r *ImageRecord) StorageName() string {
	return path.Base(r.Path)
}

// PublicPath формирует публичный путь к файлу по его имени на диске.
func PublicPath(storageName string) string {
	return PublicPathPrefix + storageName
}
