package repository

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/image-module/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "im_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш метаданных изображений.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "im_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша метаданных изображений.",
	})
)

// CachedImageRepository — ImageRepository с LRU-кэшем записей по id.
// Записи images неизменяемы, поэтому кэш инвалидируется только при удалении.
//
// deletes — счётчик удалений. Заполнение кэша после промаха разрешено,
// только если за время чтения из БД не было ни одного Delete: иначе
// прочитанная строка могла быть удалена и не должна попасть в кэш.
type CachedImageRepository struct {
	next  ImageRepository
	cache *expirable.LRU[int64, *model.ImageRecord]

	mu      sync.Mutex
	deletes uint64
}

// NewCachedImageRepository оборачивает репозиторий LRU-кэшем.
// maxSize — максимальное количество записей, ttl — время жизни записи.
func NewCachedImageRepository(next ImageRepository, maxSize int, ttl time.Duration) *CachedImageRepository {
	return &CachedImageRepository{
		next:  next,
		cache: expirable.NewLRU[int64, *model.ImageRecord](maxSize, nil, ttl),
	}
}

func (c *CachedImageRepository) Insert(ctx context.Context, filename, description, location, path string) (*model.ImageRecord, error) {
	img, err := c.next.Insert(ctx, filename, description, location, path)
	if err != nil {
		return nil, err
	}
	c.cache.Add(img.ID, img)
	return img, nil
}

// List всегда идёт в БД: кэш хранит только отдельные записи.
func (c *CachedImageRepository) List(ctx context.Context) ([]*model.ImageRecord, error) {
	return c.next.List(ctx)
}

func (c *CachedImageRepository) GetByID(ctx context.Context, id int64) (*model.ImageRecord, error) {
	if img, ok := c.cache.Get(id); ok {
		cacheHitsTotal.Inc()
		return img, nil
	}
	cacheMissesTotal.Inc()

	c.mu.Lock()
	gen := c.deletes
	c.mu.Unlock()

	img, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.deletes == gen {
		c.cache.Add(id, img)
	}
	c.mu.Unlock()
	return img, nil
}

func (c *CachedImageRepository) Delete(ctx context.Context, id int64) (bool, error) {
	c.invalidate(id)
	removed, err := c.next.Delete(ctx, id)
	// Повторно: параллельный GetByID мог начать чтение до удаления строки.
	// После ошибки запись тоже могла быть удалена.
	c.invalidate(id)
	return removed, err
}

// invalidate удаляет запись из кэша и отменяет незавершённые заполнения.
func (c *CachedImageRepository) invalidate(id int64) {
	c.mu.Lock()
	c.deletes++
	c.cache.Remove(id)
	c.mu.Unlock()
}

// Len возвращает текущее количество записей в кэше.
func (c *CachedImageRepository) Len() int {
	return c.cache.Len()
}
