// Пакет filestore — операции с файлами изображений на диске.
// Обеспечивает streaming-запись с ограничением размера, чтение
// и удаление файлов в плоской директории загрузок.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultExt — расширение для файлов без расширения или с небезопасным расширением.
const DefaultExt = ".jpg"

// maxExtLen — максимальная длина расширения без точки.
const maxExtLen = 10

var (
	// ErrTooLarge — данные превысили допустимый размер при записи.
	ErrTooLarge = errors.New("превышен максимальный размер файла")
	// ErrNotFound — файл отсутствует на диске.
	ErrNotFound = errors.New("файл не найден")
	// ErrInvalidName — имя файла содержит разделители пути или "..".
	ErrInvalidName = errors.New("недопустимое имя файла")
)

// FileStore — управление файлами изображений на диске.
type FileStore struct {
	// dataDir — директория хранения файлов (IM_UPLOAD_DIR)
	dataDir string
}

// New создаёт новый FileStore. Создаёт директорию, если она не существует.
func New(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию загрузок %s: %w", dataDir, err)
	}

	return &FileStore{dataDir: dataDir}, nil
}

// Save записывает данные из reader в новый файл с уникальным именем
// {uuid}{ext} и возвращает это имя и число записанных байт.
// limit — максимальный размер данных в байтах (0 — без ограничения).
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется, в директории ничего не остаётся.
func (fs *FileStore) Save(reader io.Reader, ext string, limit int64) (string, int64, error) {
	name := uuid.New().String() + NormalizeExt(ext)
	fullPath := filepath.Join(fs.dataDir, name)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", 0, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	src := reader
	if limit > 0 {
		// Читаем на байт больше лимита, чтобы обнаружить превышение
		src = io.LimitReader(reader, limit+1)
	}

	size, err := io.Copy(f, src)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("ошибка записи данных: %w", err)
	}
	if limit > 0 && size > limit {
		f.Close()
		os.Remove(tmpPath)
		return "", 0, ErrTooLarge
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return name, size, nil
}

// Open открывает файл для чтения. Вызывающий код обязан закрыть файл.
// Возвращает ErrNotFound, если файла нет, и ErrInvalidName для имён
// вне директории загрузок.
func (fs *FileStore) Open(name string) (*os.File, error) {
	if !validName(name) {
		return nil, ErrInvalidName
	}

	f, err := os.Open(filepath.Join(fs.dataDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ошибка получения информации о файле %s: %w", name, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return f, nil
}

// Delete удаляет файл с диска.
// Возвращает nil, если файл уже не существует.
func (fs *FileStore) Delete(name string) error {
	if !validName(name) {
		return ErrInvalidName
	}

	err := os.Remove(filepath.Join(fs.dataDir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла %s: %w", name, err)
	}
	return nil
}

// Exists проверяет существование файла на диске.
func (fs *FileStore) Exists(name string) bool {
	if !validName(name) {
		return false
	}
	info, err := os.Stat(filepath.Join(fs.dataDir, name))
	return err == nil && !info.IsDir()
}

// FullPath возвращает путь к файлу на диске.
func (fs *FileStore) FullPath(name string) string {
	return filepath.Join(fs.dataDir, name)
}

// DataDir возвращает путь к директории загрузок.
func (fs *FileStore) DataDir() string {
	return fs.dataDir
}

// NormalizeExt приводит расширение к виду ".ext".
// Пустое расширение и расширения с символами кроме букв и цифр
// заменяются на DefaultExt.
func NormalizeExt(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" || len(ext) > maxExtLen {
		return DefaultExt
	}
	for _, r := range ext {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return DefaultExt
		}
	}
	return "." + ext
}

// ExtFromFilename возвращает нормализованное расширение из имени файла клиента.
func ExtFromFilename(filename string) string {
	return NormalizeExt(filepath.Ext(filename))
}

// validName проверяет, что имя ссылается на файл непосредственно в dataDir.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return !strings.HasSuffix(name, ".tmp")
}
