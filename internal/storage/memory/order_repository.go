package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
)

// storedOrder — заголовок заказа и его шаги в том виде, в каком их хранит таблица.
type storedOrder struct {
	header domain.Order
	steps  []domain.StepRecord
}

// orderRepositoryInMemory — in-memory реализация OrderRepository.
// Шаги хранятся через кодек, как в PostgreSQL, чтобы обе реализации вели себя одинаково.
type orderRepositoryInMemory struct {
	mu     sync.RWMutex
	items  map[string]storedOrder
	codes  map[string]string
	now    func() time.Time
	lastTS time.Time
}

// Option настраивает in-memory репозиторий.
type Option func(*orderRepositoryInMemory)

// WithClock подменяет источник времени (используется в тестах).
func WithClock(now func() time.Time) Option {
	return func(r *orderRepositoryInMemory) {
		if now != nil {
			r.now = now
		}
	}
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository(opts ...Option) domain.OrderRepository {
	r := &orderRepositoryInMemory{
		items: make(map[string]storedOrder),
		codes: make(map[string]string),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Insert сохраняет заказ и все шаги под одной блокировкой.
func (r *orderRepositoryInMemory) Insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.Order{}, domain.ErrOrderExists
	}
	code := domain.NormalizeTrackingCode(order.Tracking.Code)
	if _, taken := r.codes[code]; taken {
		return domain.Order{}, domain.ErrTrackingCodeTaken
	}

	header := headerOf(order)
	header.Tracking.Code = code
	if header.CreatedAt.IsZero() {
		header.CreatedAt = r.tick()
	}

	stored := storedOrder{header: header, steps: r.stampSteps(order.ID, order.Tracking.Steps)}
	r.items[order.ID] = stored
	r.codes[code] = order.ID

	return r.assemble(stored)
}

// Update заменяет заголовок и пересоздаёт все шаги со свежими временами.
func (r *orderRepositoryInMemory) Update(ctx context.Context, order domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	code := domain.NormalizeTrackingCode(order.Tracking.Code)
	if owner, taken := r.codes[code]; taken && owner != order.ID {
		return domain.ErrTrackingCodeTaken
	}

	header := headerOf(order)
	header.Tracking.Code = code
	header.UserID = current.header.UserID
	header.CreatedAt = current.header.CreatedAt

	delete(r.codes, current.header.Tracking.Code)
	r.items[order.ID] = storedOrder{header: header, steps: r.stampSteps(order.ID, order.Tracking.Steps)}
	r.codes[code] = order.ID

	return nil
}

// Delete удаляет заказ вместе с шагами.
func (r *orderRepositoryInMemory) Delete(ctx context.Context, orderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.codes, current.header.Tracking.Code)
	delete(r.items, orderID)
	return nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(ctx context.Context, orderID string) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.items[orderID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return r.assemble(stored)
}

// FindByOwner возвращает заказы пользователя, новые первыми.
func (r *orderRepositoryInMemory) FindByOwner(ctx context.Context, userID string) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0)
	for _, stored := range r.items {
		if stored.header.UserID != userID {
			continue
		}
		order, err := r.assemble(stored)
		if err != nil {
			return nil, err
		}
		result = append(result, order)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

// FindByTrackingCode ищет заказ по нормализованному коду.
func (r *orderRepositoryInMemory) FindByTrackingCode(ctx context.Context, code string) (domain.Order, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.codes[domain.NormalizeTrackingCode(code)]
	if !ok {
		return domain.Order{}, false, nil
	}
	order, err := r.assemble(r.items[id])
	if err != nil {
		return domain.Order{}, false, err
	}
	return order, true, nil
}

// tick выдаёт строго возрастающие отметки времени с точностью PostgreSQL.
// Вызывается под r.mu.
func (r *orderRepositoryInMemory) tick() time.Time {
	ts := r.now().UTC().Truncate(time.Microsecond)
	if !ts.After(r.lastTS) {
		ts = r.lastTS.Add(time.Microsecond)
	}
	r.lastTS = ts
	return ts
}

// stampSteps назначает шагам новые идентификаторы и времена в порядке следования.
func (r *orderRepositoryInMemory) stampSteps(orderID string, steps []domain.TimedStep) []domain.StepRecord {
	records := make([]domain.StepRecord, 0, len(steps))
	for _, step := range steps {
		rec := domain.EncodeStep(step.Step)
		rec.ID = uuid.NewString()
		rec.OrderID = orderID
		rec.CreatedAt = r.tick()
		records = append(records, rec)
	}
	return records
}

func (r *orderRepositoryInMemory) assemble(stored storedOrder) (domain.Order, error) {
	steps, err := domain.DecodeSteps(stored.steps)
	if err != nil {
		return domain.Order{}, err
	}
	order := cloneHeader(stored.header)
	order.Tracking.Steps = domain.SortSteps(steps)
	return order, nil
}

// headerOf отделяет заголовок от шагов. Файл изображения, не загруженный в хранилище, не сохраняется.
func headerOf(order domain.Order) domain.Order {
	header := cloneHeader(order)
	header.Tracking.Steps = nil
	header.Product.Image.Pending = nil
	return header
}

func cloneHeader(order domain.Order) domain.Order {
	clone := order
	if order.Tracking.EstimatedDeliveryDate != nil {
		eta := *order.Tracking.EstimatedDeliveryDate
		clone.Tracking.EstimatedDeliveryDate = &eta
	}
	return clone
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
