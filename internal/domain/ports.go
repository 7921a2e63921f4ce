package domain

import (
	"context"
	"time"
)

// IdentityProvider отдаёт идентификатор текущего пользователя.
type IdentityProvider interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

// BlobStore хранит загруженные файлы и отдаёт их публичные URL.
type BlobStore interface {
	// Put сохраняет файл по ключу. Без upsert существующий ключ считается ошибкой.
	Put(ctx context.Context, key, contentType string, data []byte, upsert bool) (string, error)
	// Delete удаляет файлы; отсутствующие ключи игнорируются.
	Delete(ctx context.Context, keys ...string) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	// TrackingCode — нормализованный код отслеживания заказа, к которому относится событие.
	TrackingCode string
	EventType    string
	Payload      []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
