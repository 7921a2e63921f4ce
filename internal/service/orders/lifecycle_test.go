package orders_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/parceltrack/internal/auth"
	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
	"github.com/vladislavdragonenkov/parceltrack/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/parceltrack/internal/metrics"
	"github.com/vladislavdragonenkov/parceltrack/internal/service/orders"
	outboxworker "github.com/vladislavdragonenkov/parceltrack/internal/service/outbox"
	"github.com/vladislavdragonenkov/parceltrack/internal/storage/blob"
	"github.com/vladislavdragonenkov/parceltrack/internal/storage/memory"
)

// OrderLifecycleTestSuite проводит заказ от создания до доставки
// и проверяет, что каждое изменение уходит в Kafka через outbox.
type OrderLifecycleTestSuite struct {
	suite.Suite

	service  *orders.Service
	outbox   domain.OutboxRepository
	worker   *outboxworker.Worker
	producer *mocks.SyncProducer
	sent     []kafka.OrderEvent
}

func (s *OrderLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	logger := baseLogger.WithField("component", "lifecycle-test")
	reg := prometheus.NewRegistry()

	s.outbox = memory.NewOutboxRepository()
	s.service = orders.NewService(
		memory.NewOrderRepository(),
		auth.ContextIdentity{},
		blob.NewMemoryStore("https://cdn.example.com/product-images"),
		orders.WithLogger(logger),
		orders.WithMetrics(metrics.NewTrackingMetricsWithRegisterer(reg)),
		orders.WithOutbox(s.outbox),
	)

	s.producer = mocks.NewSyncProducer(s.T(), nil)
	s.sent = nil

	producer := kafka.NewProducerFromSyncProducer(s.producer, kafka.WithProducerLogger(logger))
	s.worker = outboxworker.NewWorker(
		s.outbox,
		kafka.NewOutboxPublisher(producer, kafka.TopicOrderEvents),
		outboxworker.WithLogger(logger),
		outboxworker.WithMetrics(metrics.NewOutboxMetricsWithRegisterer(reg)),
		outboxworker.WithRetryBaseDelay(0),
	)
}

func (s *OrderLifecycleTestSuite) TearDownTest() {
	require.NoError(s.T(), s.producer.Close())
}

// expectPublished ожидает n сообщений в топик событий и сохраняет их содержимое.
func (s *OrderLifecycleTestSuite) expectPublished(n int) {
	for i := 0; i < n; i++ {
		s.producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(payload []byte) error {
			var envelope kafka.Envelope
			if err := json.Unmarshal(payload, &envelope); err != nil {
				return err
			}
			event, err := kafka.ParseOrderEvent(envelope.Payload)
			if err != nil {
				return err
			}
			s.sent = append(s.sent, *event)
			return nil
		})
	}
}

func (s *OrderLifecycleTestSuite) TestDeliveredOrderLifecycle() {
	ctx := auth.WithUserID(context.Background(), "operator-1")

	order, err := s.service.Create(ctx, draft(" br123 "))
	s.Require().NoError(err)
	s.Require().Equal("BR123", order.Tracking.Code)

	steps := []domain.Step{
		domain.Processed(),
		domain.Forwarded(domain.CapitalCuritiba),
		domain.InTransit(domain.CapitalCuritiba, domain.CapitalSaoPaulo),
		domain.OutForDelivery("Campinas"),
		domain.Delivered(),
	}
	for _, step := range steps {
		_, err := s.service.AppendStep(ctx, order.ID, step)
		s.Require().NoError(err)
	}

	_, timeline, found, err := s.service.Lookup(context.Background(), "br123")
	s.Require().NoError(err)
	s.Require().True(found)
	s.Require().Len(timeline.Steps, len(steps))
	s.Require().Equal(domain.StepDelivered, timeline.Current.Step.Type)
	s.Require().True(timeline.Current.Terminal())

	queued, err := s.outbox.PullPending(0)
	s.Require().NoError(err)
	s.Require().Len(queued, 1+len(steps))
	for _, msg := range queued {
		s.Require().Equal(order.ID, msg.AggregateID)
		s.Require().Equal("BR123", msg.TrackingCode)
	}

	s.expectPublished(1 + len(steps))
	s.Require().Equal(1+len(steps), s.worker.ProcessOnce(context.Background()))

	stats, err := s.outbox.Stats()
	s.Require().NoError(err)
	s.Require().Zero(stats.PendingCount)

	s.Require().Len(s.sent, 1+len(steps))
	s.Require().Equal(kafka.EventTypeOrderCreated, s.sent[0].EventType)
	for i, step := range steps {
		event := s.sent[i+1]
		s.Require().Equal(kafka.EventTypeOrderStepAppended, event.EventType)
		s.Require().Equal(string(step.Type), event.StepType)
		s.Require().Equal(order.ID, event.OrderID)
	}
	s.Require().True(s.sent[len(s.sent)-1].Terminal)
}

func (s *OrderLifecycleTestSuite) TestCancelledOrderIsRemovedAfterDelete() {
	ctx := auth.WithUserID(context.Background(), "operator-1")

	order, err := s.service.Create(ctx, draft("CX900"))
	s.Require().NoError(err)

	_, err = s.service.AppendStep(ctx, order.ID, domain.Cancelled())
	s.Require().NoError(err)

	_, timeline, found, err := s.service.Lookup(context.Background(), "CX900")
	s.Require().NoError(err)
	s.Require().True(found)
	s.Require().Equal("cancelled", timeline.Current.Describe())

	s.Require().NoError(s.service.Delete(ctx, order.ID))

	_, _, found, err = s.service.Lookup(context.Background(), "CX900")
	s.Require().NoError(err)
	s.Require().False(found)

	s.expectPublished(3)
	s.Require().Equal(3, s.worker.ProcessOnce(context.Background()))
	s.Require().Equal(kafka.EventTypeOrderDeleted, s.sent[2].EventType)
}

func (s *OrderLifecycleTestSuite) TestWorkerIdleWithoutChanges() {
	done := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	go func() {
		defer close(done)
		s.worker.Run(ctx)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.T().Fatal("worker did not stop")
	}
}

func TestOrderLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(OrderLifecycleTestSuite))
}
