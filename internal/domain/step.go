package domain

import (
	"strings"
	"time"
)

// Capital — одна из столиц штатов, в которые может быть направлен заказ.
type Capital string

const (
	CapitalSaoPaulo      Capital = "São Paulo"
	CapitalRioDeJaneiro  Capital = "Rio de Janeiro"
	CapitalBrasilia      Capital = "Brasília"
	CapitalSalvador      Capital = "Salvador"
	CapitalFortaleza     Capital = "Fortaleza"
	CapitalBeloHorizonte Capital = "Belo Horizonte"
	CapitalManaus        Capital = "Manaus"
	CapitalCuritiba      Capital = "Curitiba"
	CapitalRecife        Capital = "Recife"
	CapitalPortoAlegre   Capital = "Porto Alegre"
	CapitalBelem         Capital = "Belém"
	CapitalGoiania       Capital = "Goiânia"
	CapitalFlorianopolis Capital = "Florianópolis"
)

var capitals = []Capital{
	CapitalSaoPaulo,
	CapitalRioDeJaneiro,
	CapitalBrasilia,
	CapitalSalvador,
	CapitalFortaleza,
	CapitalBeloHorizonte,
	CapitalManaus,
	CapitalCuritiba,
	CapitalRecife,
	CapitalPortoAlegre,
	CapitalBelem,
	CapitalGoiania,
	CapitalFlorianopolis,
}

// Capitals возвращает перечень столиц в фиксированном порядке.
func Capitals() []Capital {
	result := make([]Capital, len(capitals))
	copy(result, capitals)
	return result
}

// Valid проверяет, что значение входит в перечень столиц.
func (c Capital) Valid() bool {
	for _, known := range capitals {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCapital приводит строку к Capital; сравнение точное после обрезки пробелов.
func ParseCapital(value string) (Capital, bool) {
	c := Capital(strings.TrimSpace(value))
	return c, c.Valid()
}

// StepType — дискриминатор варианта шага отслеживания.
type StepType string

const (
	// StepProcessed — заказ принят в обработку.
	StepProcessed StepType = "processed"
	// StepForwarded — заказ передан в распределительный центр.
	StepForwarded StepType = "forwarded"
	// StepInTransit — заказ перемещается между двумя хабами.
	StepInTransit StepType = "inTransit"
	// StepCancelled — терминальный шаг, заказ отменён.
	StepCancelled StepType = "cancelled"
	// StepOutForDelivery — курьер выехал на доставку.
	StepOutForDelivery StepType = "outForDelivery"
	// StepDelivered — терминальный шаг, заказ доставлен.
	StepDelivered StepType = "delivered"
)

// StepTypes возвращает все поддерживаемые типы шагов.
func StepTypes() []StepType {
	return []StepType{
		StepProcessed, StepForwarded, StepInTransit,
		StepCancelled, StepOutForDelivery, StepDelivered,
	}
}

// Valid проверяет, что тип относится к поддерживаемым значениям.
func (t StepType) Valid() bool {
	switch t {
	case StepProcessed, StepForwarded, StepInTransit, StepCancelled, StepOutForDelivery, StepDelivered:
		return true
	default:
		return false
	}
}

// Step — событие отслеживания. Заполнены только поля, принадлежащие варианту Type;
// создавать шаги следует через конструкторы вариантов.
type Step struct {
	Type StepType
	// City — распределительный центр для forwarded.
	City Capital
	// Origin и Destination — хабы для inTransit.
	Origin      Capital
	Destination Capital
	// DeliveryCity — город доставки для outForDelivery, свободный текст.
	DeliveryCity string
}

// TimedStep — шаг вместе с идентификатором и временем, назначенными хранилищем.
type TimedStep struct {
	Step
	ID        string
	CreatedAt time.Time
}

// Processed создаёт шаг "заказ обработан".
func Processed() Step { return Step{Type: StepProcessed} }

// Forwarded создаёт шаг передачи в распределительный центр.
func Forwarded(city Capital) Step { return Step{Type: StepForwarded, City: city} }

// InTransit создаёт шаг перемещения между хабами.
func InTransit(origin, destination Capital) Step {
	return Step{Type: StepInTransit, Origin: origin, Destination: destination}
}

// Cancelled создаёт терминальный шаг отмены.
func Cancelled() Step { return Step{Type: StepCancelled} }

// OutForDelivery создаёт шаг выезда курьера.
func OutForDelivery(city string) Step { return Step{Type: StepOutForDelivery, DeliveryCity: city} }

// Delivered создаёт терминальный шаг доставки.
func Delivered() Step { return Step{Type: StepDelivered} }

// ParseStep собирает шаг из сырых полей запроса, выбирая конструктор по типу.
// Поля, не относящиеся к варианту, отбрасываются; результат нужно провалидировать.
func ParseStep(stepType, city, origin, destination, deliveryCity string) (Step, error) {
	switch StepType(strings.TrimSpace(stepType)) {
	case StepProcessed:
		return Processed(), nil
	case StepForwarded:
		return Forwarded(Capital(strings.TrimSpace(city))), nil
	case StepInTransit:
		return InTransit(Capital(strings.TrimSpace(origin)), Capital(strings.TrimSpace(destination))), nil
	case StepCancelled:
		return Cancelled(), nil
	case StepOutForDelivery:
		return OutForDelivery(strings.TrimSpace(deliveryCity)), nil
	case StepDelivered:
		return Delivered(), nil
	default:
		return Step{}, ErrUnknownStepType
	}
}

// Validate проверяет обязательные поля варианта и отсутствие чужих полей.
func (s Step) Validate() error {
	switch s.Type {
	case StepProcessed, StepCancelled, StepDelivered:
		if s.City != "" || s.Origin != "" || s.Destination != "" || s.DeliveryCity != "" {
			return ErrForeignField
		}
		return nil
	case StepForwarded:
		if s.Origin != "" || s.Destination != "" || s.DeliveryCity != "" {
			return ErrForeignField
		}
		if s.City == "" {
			return &MissingFieldError{Step: s.Type, Field: "city"}
		}
		if !s.City.Valid() {
			return ErrInvalidCapital
		}
		return nil
	case StepInTransit:
		if s.City != "" || s.DeliveryCity != "" {
			return ErrForeignField
		}
		if s.Origin == "" {
			return &MissingFieldError{Step: s.Type, Field: "origin"}
		}
		if s.Destination == "" {
			return &MissingFieldError{Step: s.Type, Field: "destination"}
		}
		if !s.Origin.Valid() || !s.Destination.Valid() {
			return ErrInvalidCapital
		}
		return nil
	case StepOutForDelivery:
		if s.City != "" || s.Origin != "" || s.Destination != "" {
			return ErrForeignField
		}
		if strings.TrimSpace(s.DeliveryCity) == "" {
			return &MissingFieldError{Step: s.Type, Field: "city"}
		}
		return nil
	default:
		return ErrUnknownStepType
	}
}
