package kafka

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType определяет тип события заказа.
type EventType string

const (
	EventTypeOrderCreated      EventType = "order.created"
	EventTypeOrderUpdated      EventType = "order.updated"
	EventTypeOrderDeleted      EventType = "order.deleted"
	EventTypeOrderStepAppended EventType = "order.step_appended"
)

// AggregateOrder — тип агрегата в outbox-сообщениях о заказах.
const AggregateOrder = "order"

// Topics для Kafka
const (
	TopicOrderEvents     = "parceltrack.order.events"
	TopicDeadLetterQueue = "parceltrack.dlq"
)

// Kafka headers сообщений outbox
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
	HeaderOutboxID      = "x-outbox-id"
	HeaderTrackingCode  = "x-tracking-code"
)

// OrderEvent — полезная нагрузка события заказа.
type OrderEvent struct {
	EventType    EventType `json:"event_type"`
	OrderID      string    `json:"order_id"`
	UserID       string    `json:"user_id"`
	TrackingCode string    `json:"tracking_code"`
	// Status — описание текущего статуса заказа.
	Status   string `json:"status"`
	StepType string `json:"step_type,omitempty"`
	// Terminal истинно для доставленных и отменённых заказов.
	Terminal  bool      `json:"terminal"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOrderEvent создает новое событие заказа
func NewOrderEvent(eventType EventType, orderID, userID, trackingCode, status string, at time.Time) *OrderEvent {
	return &OrderEvent{
		EventType:    eventType,
		OrderID:      orderID,
		UserID:       userID,
		TrackingCode: trackingCode,
		Status:       status,
		Timestamp:    at.UTC(),
	}
}

// Marshal сериализует событие в JSON для outbox.
func (e *OrderEvent) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal order event: %w", err)
	}
	return data, nil
}

// ParseOrderEvent парсит OrderEvent из payload сообщения
func ParseOrderEvent(payload []byte) (*OrderEvent, error) {
	var event OrderEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order event: %w", err)
	}
	return &event, nil
}
