package domain

import (
	"strings"
	"time"
)

// StepRecord — плоское представление шага в таблице tracking_steps.
// Колонки городов nullable: nil означает NULL.
type StepRecord struct {
	ID              string
	OrderID         string
	StatusType      string
	OriginCity      *string
	DestinationCity *string
	DeliveryCity    *string
	CreatedAt       time.Time
}

// EncodeStep раскладывает вариант по колонкам. Не падает: шаг уже провалидирован.
func EncodeStep(step Step) StepRecord {
	rec := StepRecord{StatusType: string(step.Type)}

	switch step.Type {
	case StepForwarded:
		rec.DestinationCity = strPtr(string(step.City))
	case StepInTransit:
		rec.OriginCity = strPtr(string(step.Origin))
		rec.DestinationCity = strPtr(string(step.Destination))
	case StepOutForDelivery:
		rec.DeliveryCity = strPtr(step.DeliveryCity)
	case StepProcessed, StepCancelled, StepDelivered:
	}

	return rec
}

// EncodeTimedStep кодирует шаг вместе с его идентификатором и временем.
func EncodeTimedStep(orderID string, step TimedStep) StepRecord {
	rec := EncodeStep(step.Step)
	rec.ID = step.ID
	rec.OrderID = orderID
	rec.CreatedAt = step.CreatedAt
	return rec
}

// DecodeStep восстанавливает вариант по status_type.
// Неизвестный дискриминатор или отсутствие обязательной колонки дают CorruptRecordError.
func DecodeStep(rec StepRecord) (TimedStep, error) {
	var step Step

	switch StepType(rec.StatusType) {
	case StepProcessed:
		step = Processed()
	case StepCancelled:
		step = Cancelled()
	case StepDelivered:
		step = Delivered()
	case StepForwarded:
		city, err := decodeCapital(rec, "destination_city", rec.DestinationCity)
		if err != nil {
			return TimedStep{}, err
		}
		step = Forwarded(city)
	case StepInTransit:
		origin, err := decodeCapital(rec, "origin_city", rec.OriginCity)
		if err != nil {
			return TimedStep{}, err
		}
		destination, err := decodeCapital(rec, "destination_city", rec.DestinationCity)
		if err != nil {
			return TimedStep{}, err
		}
		step = InTransit(origin, destination)
	case StepOutForDelivery:
		if rec.DeliveryCity == nil || strings.TrimSpace(*rec.DeliveryCity) == "" {
			return TimedStep{}, corrupt(rec, "delivery_city")
		}
		step = OutForDelivery(*rec.DeliveryCity)
	default:
		return TimedStep{}, corrupt(rec, "")
	}

	return TimedStep{Step: step, ID: rec.ID, CreatedAt: rec.CreatedAt}, nil
}

// EncodeSteps кодирует набор шагов заказа в записи.
func EncodeSteps(orderID string, steps []TimedStep) []StepRecord {
	records := make([]StepRecord, 0, len(steps))
	for _, step := range steps {
		records = append(records, EncodeTimedStep(orderID, step))
	}
	return records
}

// DecodeSteps декодирует записи и останавливается на первой повреждённой.
func DecodeSteps(records []StepRecord) ([]TimedStep, error) {
	steps := make([]TimedStep, 0, len(records))
	for _, rec := range records {
		step, err := DecodeStep(rec)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func decodeCapital(rec StepRecord, column string, value *string) (Capital, error) {
	if value == nil {
		return "", corrupt(rec, column)
	}
	city := Capital(*value)
	if !city.Valid() {
		return "", corrupt(rec, column)
	}
	return city, nil
}

func corrupt(rec StepRecord, column string) error {
	return &CorruptRecordError{RecordID: rec.ID, StatusType: rec.StatusType, Column: column}
}

func strPtr(v string) *string {
	return &v
}
