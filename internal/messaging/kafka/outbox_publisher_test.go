package kafka

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
)

func newTestPublisher(t *testing.T, topic string) (*mocks.SyncProducer, *OutboxTopicPublisher) {
	t.Helper()

	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := NewProducerFromSyncProducer(
		mockProducer,
		WithProducerLogger(log.WithField("component", "kafka-outbox-publisher-test")),
		WithProducerClock(fixedClock),
	)
	return mockProducer, NewOutboxPublisher(producer, topic)
}

func TestOutboxPublisher_Publish(t *testing.T) {
	t.Parallel()

	mockProducer, publisher := newTestPublisher(t, "")
	if publisher.Topic() != TopicOrderEvents {
		t.Fatalf("expected default topic %s, got %s", TopicOrderEvents, publisher.Topic())
	}

	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var envelope Envelope
		if err := json.Unmarshal(val, &envelope); err != nil {
			return err
		}
		if envelope.AggregateID != "order-123" || envelope.EventType != string(EventTypeOrderCreated) || envelope.TrackingCode != "BR123" {
			return fmt.Errorf("unexpected envelope %+v", envelope)
		}
		if !envelope.PublishedAt.Equal(fixedClock()) {
			return fmt.Errorf("unexpected published_at %s", envelope.PublishedAt)
		}
		event, err := ParseOrderEvent(envelope.Payload)
		if err != nil {
			return err
		}
		if event.TrackingCode != "BR123" {
			return fmt.Errorf("unexpected tracking code %q", event.TrackingCode)
		}
		return nil
	})

	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-1",
		AggregateType: AggregateOrder,
		AggregateID:   "order-123",
		TrackingCode:  "BR123",
		EventType:     string(EventTypeOrderCreated),
		Payload:       []byte(`{"event_type":"order.created","order_id":"order-123","tracking_code":"BR123"}`),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	mockProducer, publisher := newTestPublisher(t, TopicDeadLetterQueue)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-2",
		AggregateType: AggregateOrder,
		AggregateID:   "order-234",
		EventType:     string(EventTypeOrderUpdated),
		Payload:       []byte(`{"order_id":"order-234"}`),
	})
	if err == nil {
		t.Fatal("expected publish error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_RejectsInvalidPayload(t *testing.T) {
	t.Parallel()

	mockProducer, publisher := newTestPublisher(t, "")

	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "empty", payload: nil},
		{name: "malformed", payload: []byte("{order")},
	}
	for _, tt := range tests {
		err := publisher.Publish(domain.OutboxMessage{ID: "outbox-" + tt.name, AggregateID: "order-1", Payload: tt.payload})
		if err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishNilProducer(t *testing.T) {
	t.Parallel()

	publisher := NewOutboxPublisher(nil, TopicOrderEvents)
	if err := publisher.Publish(domain.OutboxMessage{ID: "outbox-3"}); err == nil {
		t.Fatal("expected error for nil producer")
	}
}
