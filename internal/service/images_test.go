package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/bigkaa/goartstore/image-module/internal/domain/model"
	"github.com/bigkaa/goartstore/image-module/internal/repository"
	"github.com/bigkaa/goartstore/image-module/internal/storage/filestore"
)

// fakeRepo — in-memory ImageRepository с управляемыми ошибками.
type fakeRepo struct {
	mu      sync.Mutex
	records map[int64]*model.ImageRecord
	nextID  int64

	insertErr error
	listErr   error
	getErr    error
	deleteErr error
	// deleteMiss — Delete сообщает, что строка не удалена
	deleteMiss bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[int64]*model.ImageRecord)}
}

func (r *fakeRepo) Insert(_ context.Context, filename, description, location, path string) (*model.ImageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	r.nextID++
	img := &model.ImageRecord{
		ID:          r.nextID,
		Filename:    filename,
		Description: description,
		Location:    location,
		UploadedAt:  time.Now().UTC(),
		Path:        path,
	}
	r.records[img.ID] = img
	return img, nil
}

func (r *fakeRepo) List(_ context.Context) ([]*model.ImageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	result := make([]*model.ImageRecord, 0, len(r.records))
	for id := r.nextID; id > 0; id-- {
		if img, ok := r.records[id]; ok {
			result = append(result, img)
		}
	}
	return result, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (*model.ImageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	img, ok := r.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return img, nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return false, r.deleteErr
	}
	if r.deleteMiss {
		return false, nil
	}
	if _, ok := r.records[id]; !ok {
		return false, nil
	}
	delete(r.records, id)
	return true, nil
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// fakeChecker — заглушка проверки готовности БД.
type fakeChecker struct{ status string }

func (c fakeChecker) CheckReady() (string, string) { return c.status, "" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestService создаёт сервис с fake-репозиторием и FileStore во временной директории.
func newTestService(t *testing.T, maxSize int64) (*ImageService, *fakeRepo, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := filestore.New(dir)
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}
	repo := newFakeRepo()
	return NewImageService(repo, store, fakeChecker{status: "ok"}, maxSize, testLogger()), repo, dir
}

// countFiles возвращает количество файлов в директории.
func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ошибка чтения директории: %v", err)
	}
	return len(entries)
}

// counterValue возвращает текущее значение счётчика.
func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("ошибка чтения метрики: %v", err)
	}
	return m.GetCounter().GetValue()
}

func pngParams(content []byte) UploadParams {
	return UploadParams{
		Reader:      bytes.NewReader(content),
		Filename:    "photo.png",
		ContentType: "image/png",
		Size:        int64(len(content)),
		Description: "front door",
		Location:    "porch",
	}
}

// TestUpload_Success проверяет успешную загрузку: запись, файл и содержимое.
func TestUpload_Success(t *testing.T) {
	svc, repo, dir := newTestService(t, 1024)
	ctx := context.Background()
	content := []byte("\x89PNG\r\n\x1a\n0123456789")
	bytesBefore := counterValue(t, uploadedBytesTotal)

	img, err := svc.Upload(ctx, pngParams(content))
	if err != nil {
		t.Fatalf("Upload() ошибка: %v", err)
	}

	if got := counterValue(t, uploadedBytesTotal) - bytesBefore; got != float64(len(content)) {
		t.Errorf("im_uploaded_bytes_total вырос на %v, ожидалось %d", got, len(content))
	}

	if img.Filename != "photo.png" {
		t.Errorf("Filename = %q, ожидался photo.png", img.Filename)
	}
	if img.Description != "front door" || img.Location != "porch" {
		t.Errorf("Description/Location = %q/%q", img.Description, img.Location)
	}
	if !strings.HasPrefix(img.Path, model.PublicPathPrefix) || !strings.HasSuffix(img.Path, ".png") {
		t.Errorf("Path = %q, ожидался /images/<uuid>.png", img.Path)
	}
	if repo.count() != 1 {
		t.Errorf("записей в БД = %d, ожидалась 1", repo.count())
	}

	f, err := svc.OpenFile(img.StorageName())
	if err != nil {
		t.Fatalf("OpenFile() ошибка: %v", err)
	}
	defer f.Close()
	data, _ := io.ReadAll(f)
	if !bytes.Equal(data, content) {
		t.Error("содержимое файла отличается от загруженного")
	}
	if countFiles(t, dir) != 1 {
		t.Errorf("файлов на диске = %d, ожидался 1", countFiles(t, dir))
	}
}

// TestUpload_FilenameFallback проверяет подстановку сгенерированного имени.
func TestUpload_FilenameFallback(t *testing.T) {
	svc, _, _ := newTestService(t, 1024)

	params := pngParams([]byte("data"))
	params.Filename = ""

	img, err := svc.Upload(context.Background(), params)
	if err != nil {
		t.Fatalf("Upload() ошибка: %v", err)
	}
	if img.Filename != img.StorageName() {
		t.Errorf("Filename = %q, ожидалось имя на диске %q", img.Filename, img.StorageName())
	}
	if !strings.HasSuffix(img.Path, filestore.DefaultExt) {
		t.Errorf("Path = %q, ожидалось расширение %s", img.Path, filestore.DefaultExt)
	}
}

// TestUpload_Rejected проверяет отказы валидации: ни строки, ни файла.
func TestUpload_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(p *UploadParams)
		wantErr error
	}{
		{
			name:    "не изображение",
			modify:  func(p *UploadParams) { p.ContentType = "text/plain" },
			wantErr: ErrNotImage,
		},
		{
			name:    "пустой content type",
			modify:  func(p *UploadParams) { p.ContentType = "" },
			wantErr: ErrNotImage,
		},
		{
			name:    "заявленный размер больше лимита",
			modify:  func(p *UploadParams) { p.Size = 11 },
			wantErr: ErrFileTooLarge,
		},
		{
			name: "фактический размер больше лимита",
			modify: func(p *UploadParams) {
				p.Reader = bytes.NewReader(make([]byte, 11))
				p.Size = 0
			},
			wantErr: ErrFileTooLarge,
		},
		{
			name:    "размер проверяется раньше типа",
			modify:  func(p *UploadParams) { p.Size = 100; p.ContentType = "text/plain" },
			wantErr: ErrFileTooLarge,
		},
		{
			name:    "нет файла",
			modify:  func(p *UploadParams) { p.Reader = nil },
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, dir := newTestService(t, 10)
			params := pngParams([]byte("0123456789"))
			tt.modify(&params)

			_, err := svc.Upload(context.Background(), params)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Upload() ошибка = %v, ожидалась %v", err, tt.wantErr)
			}
			if repo.count() != 0 {
				t.Errorf("записей в БД = %d, ожидалось 0", repo.count())
			}
			if n := countFiles(t, dir); n != 0 {
				t.Errorf("файлов на диске = %d, ожидалось 0", n)
			}
		})
	}
}

// TestUpload_InsertFailureRemovesFile проверяет компенсацию: файл удаляется,
// если метаданные не записались.
func TestUpload_InsertFailureRemovesFile(t *testing.T) {
	svc, repo, dir := newTestService(t, 1024)
	repo.insertErr = errors.New("connection reset by peer")

	_, err := svc.Upload(context.Background(), pngParams([]byte("data")))
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("Upload() ошибка = %v, ожидалась ErrWrite", err)
	}
	if n := countFiles(t, dir); n != 0 {
		t.Errorf("файлов на диске = %d, осиротевший файл не удалён", n)
	}
}

// TestUpload_SaveFailure проверяет ErrIO при недоступной директории.
func TestUpload_SaveFailure(t *testing.T) {
	svc, repo, dir := newTestService(t, 1024)
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Upload(context.Background(), pngParams([]byte("data")))
	if !errors.Is(err, ErrIO) {
		t.Fatalf("Upload() ошибка = %v, ожидалась ErrIO", err)
	}
	if repo.count() != 0 {
		t.Error("метаданные не должны записываться при ошибке сохранения файла")
	}
}

// TestListAndGet проверяет List и Get.
func TestListAndGet(t *testing.T) {
	svc, _, _ := newTestService(t, 1024)
	ctx := context.Background()

	images, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if images == nil || len(images) != 0 {
		t.Fatalf("List() = %v, ожидался пустой срез", images)
	}

	first, _ := svc.Upload(ctx, pngParams([]byte("a")))
	second, _ := svc.Upload(ctx, pngParams([]byte("b")))

	images, err = svc.List(ctx)
	if err != nil {
		t.Fatalf("List() ошибка: %v", err)
	}
	if len(images) != 2 || images[0].ID != second.ID {
		t.Errorf("List() вернул неверный порядок")
	}

	got, err := svc.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get() ошибка: %v", err)
	}
	if got.Path != first.Path {
		t.Errorf("Get().Path = %q, ожидался %q", got.Path, first.Path)
	}

	if _, err := svc.Get(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(999) ошибка = %v, ожидалась ErrNotFound", err)
	}
}

// TestStoreFailures проверяет трансляцию ошибок хранилища.
func TestStoreFailures(t *testing.T) {
	svc, repo, _ := newTestService(t, 1024)
	ctx := context.Background()
	dbErr := errors.New("pool closed")

	repo.listErr = dbErr
	if _, err := svc.List(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("List() ошибка = %v, ожидалась ErrStoreUnavailable", err)
	}

	repo.getErr = dbErr
	if _, err := svc.Get(ctx, 1); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Get() ошибка = %v, ожидалась ErrStoreUnavailable", err)
	}
	if err := svc.Delete(ctx, 1); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Delete() ошибка = %v, ожидалась ErrStoreUnavailable", err)
	}
}

// TestDelete проверяет удаление строки и файла, повторное удаление — 404.
func TestDelete(t *testing.T) {
	svc, _, dir := newTestService(t, 1024)
	ctx := context.Background()

	img, err := svc.Upload(ctx, pngParams([]byte("data")))
	if err != nil {
		t.Fatalf("Upload() ошибка: %v", err)
	}

	if err := svc.Delete(ctx, img.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if n := countFiles(t, dir); n != 0 {
		t.Errorf("файлов на диске = %d, файл не удалён", n)
	}
	if _, err := svc.Get(ctx, img.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() после Delete ошибка = %v, ожидалась ErrNotFound", err)
	}
	if err := svc.Delete(ctx, img.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторный Delete() ошибка = %v, ожидалась ErrNotFound", err)
	}
}

// TestDelete_MissingFile проверяет, что отсутствие файла не мешает удалению.
func TestDelete_MissingFile(t *testing.T) {
	svc, _, dir := newTestService(t, 1024)
	ctx := context.Background()

	img, _ := svc.Upload(ctx, pngParams([]byte("data")))
	if err := os.Remove(dir + "/" + img.StorageName()); err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx, img.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
}

// TestDelete_Races проверяет исходы Delete при параллельном удалении и сбое БД.
func TestDelete_Races(t *testing.T) {
	svc, repo, dir := newTestService(t, 1024)
	ctx := context.Background()

	img, _ := svc.Upload(ctx, pngParams([]byte("data")))

	repo.deleteMiss = true
	if err := svc.Delete(ctx, img.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() ошибка = %v, ожидалась ErrNotFound", err)
	}

	repo.deleteMiss = false
	repo.deleteErr = errors.New("statement timeout")
	if err := svc.Delete(ctx, img.ID); !errors.Is(err, ErrWrite) {
		t.Errorf("Delete() ошибка = %v, ожидалась ErrWrite", err)
	}
	if n := countFiles(t, dir); n != 1 {
		t.Errorf("файлов на диске = %d, файл не должен удаляться при ошибке БД", n)
	}
}

// TestOpenFile_NotFound проверяет отсутствующие и недопустимые имена.
func TestOpenFile_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t, 1024)

	for _, name := range []string{"missing.jpg", "../etc/passwd", ""} {
		if _, err := svc.OpenFile(name); !errors.Is(err, ErrNotFound) {
			t.Errorf("OpenFile(%q) ошибка = %v, ожидалась ErrNotFound", name, err)
		}
	}
}

// TestDatabaseStatus проверяет статус БД для health endpoint.
func TestDatabaseStatus(t *testing.T) {
	store, _ := filestore.New(t.TempDir())

	tests := []struct {
		name    string
		checker ReadinessChecker
		want    string
	}{
		{"доступна", fakeChecker{status: "ok"}, DatabaseConnected},
		{"недоступна", fakeChecker{status: "fail"}, DatabaseDisconnected},
		{"нет проверки", nil, DatabaseDisconnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewImageService(newFakeRepo(), store, tt.checker, 1024, testLogger())
			if got := svc.DatabaseStatus(); got != tt.want {
				t.Errorf("DatabaseStatus() = %q, ожидался %q", got, tt.want)
			}
		})
	}
}
