package domain

import (
	"fmt"
	"sort"
	"time"
)

// Status — текущее состояние отправления, выведенное из последнего шага.
type Status struct {
	// Awaiting истинно, пока у заказа нет ни одного шага.
	Awaiting bool
	Step     Step
	At       time.Time
}

// AwaitingProcessing — статус заказа без шагов; не совпадает ни с одним вариантом.
var AwaitingProcessing = Status{Awaiting: true}

// Timeline — упорядоченные шаги и текущий статус.
type Timeline struct {
	Steps   []TimedStep
	Current Status
}

// SortSteps возвращает копию шагов, упорядоченную по CreatedAt.
// Сортировка стабильная: при равных временах сохраняется порядок вставки.
func SortSteps(steps []TimedStep) []TimedStep {
	sorted := make([]TimedStep, len(steps))
	copy(sorted, steps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

// CurrentStatus возвращает статус по шагу с наибольшим временем.
func CurrentStatus(steps []TimedStep) Status {
	if len(steps) == 0 {
		return AwaitingProcessing
	}
	sorted := SortSteps(steps)
	last := sorted[len(sorted)-1]
	return Status{Step: last.Step, At: last.CreatedAt}
}

// BuildTimeline упорядочивает шаги и вычисляет текущий статус.
func BuildTimeline(steps []TimedStep) Timeline {
	sorted := SortSteps(steps)
	return Timeline{Steps: sorted, Current: CurrentStatus(sorted)}
}

// Terminal истинно для доставленных и отменённых заказов.
func (s Status) Terminal() bool {
	if s.Awaiting {
		return false
	}
	return s.Step.Type == StepDelivered || s.Step.Type == StepCancelled
}

// Describe возвращает человекочитаемое описание статуса.
func (s Status) Describe() string {
	if s.Awaiting {
		return "awaiting processing"
	}
	return Describe(s.Step)
}

// Describe возвращает человекочитаемое описание шага.
func Describe(step Step) string {
	switch step.Type {
	case StepProcessed:
		return "processed"
	case StepForwarded:
		return fmt.Sprintf("forwarded to %s", step.City)
	case StepInTransit:
		return fmt.Sprintf("in transit from %s to %s", step.Origin, step.Destination)
	case StepOutForDelivery:
		return fmt.Sprintf("out for delivery in %s", step.DeliveryCity)
	case StepDelivered:
		return "delivered"
	case StepCancelled:
		return "cancelled"
	default:
		return "status update"
	}
}
