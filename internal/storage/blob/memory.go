package blob

import (
	"context"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
)

// Object — файл, сохранённый в in-memory хранилище.
type Object struct {
	ContentType string
	Data        []byte
}

// MemoryStore — in-memory реализация BlobStore для разработки и тестов.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]Object
}

// NewMemoryStore создаёт хранилище, выдающее URL вида <baseURL>/<key>.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]Object),
	}
}

// Put сохраняет копию данных под ключом.
func (s *MemoryStore) Put(ctx context.Context, key, contentType string, data []byte, upsert bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[key]; exists && !upsert {
		return "", domain.ErrBlobExists
	}
	s.objects[key] = Object{ContentType: contentType, Data: append([]byte(nil), data...)}
	return publicURL(s.baseURL, key), nil
}

// Delete удаляет ключи; отсутствующие пропускаются.
func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.objects, key)
	}
	return nil
}

// Get возвращает сохранённый объект.
func (s *MemoryStore) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	return obj, ok
}

func publicURL(baseURL, key string) string {
	return baseURL + "/" + strings.TrimLeft(key, "/")
}

var _ domain.BlobStore = (*MemoryStore)(nil)
