package orders

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
	"github.com/vladislavdragonenkov/parceltrack/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/parceltrack/internal/metrics"
)

const (
	operationCreate     = "create"
	operationUpdate     = "update"
	operationDelete     = "delete"
	operationAppendStep = "append_step"
	operationList       = "list"
	operationGet        = "get"
	operationLookup     = "lookup"
	operationShare      = "share"

	defaultBrand = "ParcelTrack"
)

// Расширения, под которыми могло быть загружено изображение товара.
var imageExtensions = []string{".jpg", ".jpeg", ".png"}

// Service управляет заказами текущего пользователя и публичным поиском по коду.
type Service struct {
	repo     domain.OrderRepository
	identity domain.IdentityProvider
	blobs    domain.BlobStore
	outbox   domain.OutboxRepository
	metrics  *metrics.TrackingMetrics
	logger   *log.Entry
	now      func() time.Time
	origin   string
	brand    string
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics задаёт метрики операций.
func WithMetrics(m *metrics.TrackingMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithOutbox включает запись событий о заказах в outbox.
func WithOutbox(repo domain.OutboxRepository) Option {
	return func(s *Service) {
		s.outbox = repo
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithShareSettings задаёт публичный адрес страницы отслеживания и название магазина.
func WithShareSettings(origin, brand string) Option {
	return func(s *Service) {
		s.origin = origin
		if brand != "" {
			s.brand = brand
		}
	}
}

// NewService конструирует сервис с зависимостями.
func NewService(repo domain.OrderRepository, identity domain.IdentityProvider, blobs domain.BlobStore, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		identity: identity,
		blobs:    blobs,
		logger:   log.WithField("component", "order-service"),
		now:      time.Now,
		brand:    defaultBrand,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create регистрирует заказ текущего пользователя. Ожидающее загрузки изображение
// сохраняется в хранилище файлов под ключом <orderID><ext> после вставки заказа.
func (s *Service) Create(ctx context.Context, draft domain.OrderDraft) (order domain.Order, err error) {
	defer s.observe(operationCreate, s.now())(&err)

	userID, err := s.currentUser(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	order, err = domain.NewOrder(draft, userID, s.now())
	if err != nil {
		return domain.Order{}, err
	}
	pending := order.Product.Image.Pending

	order, err = s.repo.Insert(ctx, order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	if pending != nil {
		url, err := s.uploadImage(ctx, order.ID, pending, false)
		if err != nil {
			return domain.Order{}, err
		}
		order.Product.Image = domain.ProductImage{URL: url}
		if err := s.repo.Update(ctx, order); err != nil {
			return domain.Order{}, fmt.Errorf("store image url: %w", err)
		}
		if order, err = s.repo.Get(ctx, order.ID); err != nil {
			return domain.Order{}, fmt.Errorf("reload order: %w", err)
		}
	}

	s.logger.WithFields(log.Fields{
		"order_id":      order.ID,
		"tracking_code": order.Tracking.Code,
	}).Info("order created")
	s.enqueue(kafka.EventTypeOrderCreated, order, nil)
	return order, nil
}

// Update заменяет изменяемые поля заказа. Шаги пересоздаются, их времена назначаются заново.
func (s *Service) Update(ctx context.Context, orderID string, patch domain.OrderDraft) (order domain.Order, err error) {
	defer s.observe(operationUpdate, s.now())(&err)

	current, err := s.ownedOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	order, err = current.ApplyUpdate(patch)
	if err != nil {
		return domain.Order{}, err
	}

	if pending := order.Product.Image.Pending; pending != nil {
		url, err := s.uploadImage(ctx, order.ID, pending, true)
		if err != nil {
			return domain.Order{}, err
		}
		order.Product.Image = domain.ProductImage{URL: url}
	}

	if err := s.repo.Update(ctx, order); err != nil {
		return domain.Order{}, fmt.Errorf("update order: %w", err)
	}
	if order, err = s.repo.Get(ctx, orderID); err != nil {
		return domain.Order{}, fmt.Errorf("reload order: %w", err)
	}

	s.enqueue(kafka.EventTypeOrderUpdated, order, nil)
	return order, nil
}

// Delete удаляет заказ вместе с шагами, затем пытается удалить изображение товара.
func (s *Service) Delete(ctx context.Context, orderID string) (err error) {
	defer s.observe(operationDelete, s.now())(&err)

	order, err := s.ownedOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if s.blobs != nil {
		if err := s.blobs.Delete(ctx, imageKeys(order)...); err != nil {
			s.logger.WithError(err).WithField("order_id", orderID).Warn("could not delete product image")
		}
	}

	s.enqueue(kafka.EventTypeOrderDeleted, order, nil)
	return nil
}

// AppendStep добавляет шаг отслеживания в конец истории заказа.
func (s *Service) AppendStep(ctx context.Context, orderID string, step domain.Step) (order domain.Order, err error) {
	defer s.observe(operationAppendStep, s.now())(&err)

	if err := step.Validate(); err != nil {
		return domain.Order{}, err
	}

	order, err = s.ownedOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := order.AppendStep(step); err != nil {
		return domain.Order{}, err
	}

	if err := s.repo.Update(ctx, order); err != nil {
		return domain.Order{}, fmt.Errorf("append step: %w", err)
	}
	if order, err = s.repo.Get(ctx, orderID); err != nil {
		return domain.Order{}, fmt.Errorf("reload order: %w", err)
	}

	s.metrics.RecordStepAppended(string(step.Type))
	s.enqueue(kafka.EventTypeOrderStepAppended, order, &step)
	return order, nil
}

// ListMine возвращает заказы текущего пользователя, новые первыми.
func (s *Service) ListMine(ctx context.Context) (orders []domain.Order, err error) {
	defer s.observe(operationList, s.now())(&err)

	userID, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	orders, err = s.repo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Get возвращает заказ текущего пользователя.
func (s *Service) Get(ctx context.Context, orderID string) (order domain.Order, err error) {
	defer s.observe(operationGet, s.now())(&err)

	return s.ownedOrder(ctx, orderID)
}

// Lookup — публичный поиск заказа по коду отслеживания. Отсутствие заказа,
// в том числе для пустого кода, возвращается как found=false без ошибки.
func (s *Service) Lookup(ctx context.Context, code string) (domain.Order, domain.Timeline, bool, error) {
	start := s.now()

	normalized := domain.NormalizeTrackingCode(code)
	if normalized == "" {
		s.metrics.RecordLookup(metrics.ResultInvalid)
		return domain.Order{}, domain.Timeline{}, false, nil
	}

	order, found, err := s.repo.FindByTrackingCode(ctx, normalized)
	switch {
	case err != nil:
		if domain.IsCorruptRecord(err) {
			s.metrics.RecordCorruptRecord()
		}
		s.logger.WithError(err).WithField("tracking_code", normalized).Error("tracking lookup failed")
		s.metrics.RecordLookup(metrics.ResultError)
		s.metrics.ObserveOperation(operationLookup, metrics.ResultError, s.now().Sub(start))
		return domain.Order{}, domain.Timeline{}, false, fmt.Errorf("lookup order: %w", err)
	case !found:
		s.metrics.RecordLookup(metrics.ResultNotFound)
		s.metrics.ObserveOperation(operationLookup, metrics.ResultNotFound, s.now().Sub(start))
		return domain.Order{}, domain.Timeline{}, false, nil
	}

	s.metrics.RecordLookup(metrics.ResultOK)
	s.metrics.ObserveOperation(operationLookup, metrics.ResultOK, s.now().Sub(start))
	return order, order.Timeline(), true, nil
}

// Share собирает ссылку на страницу отслеживания и сообщение для клиента.
// При непригодном телефоне возвращаются ссылка и текст вместе с ErrInvalidPhone.
func (s *Service) Share(ctx context.Context, orderID string) (share domain.Share, err error) {
	defer s.observe(operationShare, s.now())(&err)

	order, err := s.ownedOrder(ctx, orderID)
	if err != nil {
		return domain.Share{}, err
	}
	return domain.ComposeShare(s.origin, s.brand, order)
}

func (s *Service) currentUser(ctx context.Context) (string, error) {
	if s.identity == nil {
		return "", domain.ErrUnauthenticated
	}
	userID, ok := s.identity.CurrentUserID(ctx)
	if !ok || userID == "" {
		return "", domain.ErrUnauthenticated
	}
	return userID, nil
}

func (s *Service) ownedOrder(ctx context.Context, orderID string) (domain.Order, error) {
	userID, err := s.currentUser(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("load order: %w", err)
	}
	if order.UserID != userID {
		return domain.Order{}, domain.ErrForbidden
	}
	return order, nil
}

func (s *Service) uploadImage(ctx context.Context, orderID string, image *domain.PendingImage, upsert bool) (string, error) {
	if s.blobs == nil {
		return "", errors.New("blob store is not configured")
	}
	url, err := s.blobs.Put(ctx, imageKey(orderID, image.Filename), image.ContentType, image.Data, upsert)
	if err != nil {
		return "", fmt.Errorf("upload product image: %w", err)
	}
	return url, nil
}

// enqueue пишет событие о заказе в outbox. Ошибки только логируются.
func (s *Service) enqueue(eventType kafka.EventType, order domain.Order, step *domain.Step) {
	if s.outbox == nil {
		return
	}

	status := order.Timeline().Current
	event := kafka.NewOrderEvent(eventType, order.ID, order.UserID, order.Tracking.Code, status.Describe(), s.now())
	event.Terminal = status.Terminal()
	if step != nil {
		event.StepType = string(step.Type)
	}

	payload, err := event.Marshal()
	if err == nil {
		_, err = s.outbox.Enqueue(domain.OutboxMessage{
			ID:            uuid.NewString(),
			AggregateType: kafka.AggregateOrder,
			AggregateID:   order.ID,
			TrackingCode:  order.Tracking.Code,
			EventType:     string(eventType),
			Payload:       payload,
		})
	}
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id":      order.ID,
			"tracking_code": order.Tracking.Code,
			"event_type":    eventType,
		}).Warn("failed to enqueue order event")
		return
	}
	s.metrics.RecordOutboxEvent(string(eventType))
}

// observe возвращает функцию, фиксирующую результат и длительность операции.
func (s *Service) observe(operation string, start time.Time) func(*error) {
	return func(errp *error) {
		err := *errp
		result := metrics.ResultOK
		switch {
		case err == nil:
		case domain.IsValidation(err):
			result = metrics.ResultInvalid
		case errors.Is(err, domain.ErrOrderNotFound):
			result = metrics.ResultNotFound
		default:
			result = metrics.ResultError
			if domain.IsCorruptRecord(err) {
				s.metrics.RecordCorruptRecord()
			}
		}
		s.metrics.ObserveOperation(operation, result, s.now().Sub(start))
	}
}

func imageKey(orderID, filename string) string {
	return orderID + strings.ToLower(path.Ext(filename))
}

// imageKeys перечисляет ключи, под которыми может лежать изображение заказа.
func imageKeys(order domain.Order) []string {
	keys := make([]string, 0, len(imageExtensions)+1)
	for _, ext := range imageExtensions {
		keys = append(keys, order.ID+ext)
	}
	if url := order.Product.Image.URL; url != "" {
		if base := path.Base(url); strings.HasPrefix(base, order.ID) && !slices.Contains(keys, base) {
			keys = append(keys, base)
		}
	}
	return keys
}
