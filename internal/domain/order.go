package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer — получатель заказа.
type Customer struct {
	FirstName string
	LastName  string
	Phone     string
	CPF       string
	Address   string
	City      string
	State     string
	ZipCode   string
}

// PendingImage — изображение товара, ещё не загруженное в хранилище файлов.
type PendingImage struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProductImage хранит либо URL загруженного файла, либо файл, ожидающий загрузки.
type ProductImage struct {
	URL     string
	Pending *PendingImage
}

// Empty истинно, если изображение не задано.
func (i ProductImage) Empty() bool {
	return i.URL == "" && i.Pending == nil
}

// Validate проверяет взаимоисключающее представление изображения.
func (i ProductImage) Validate() error {
	if i.URL != "" && i.Pending != nil {
		return ErrImageAmbiguous
	}
	return nil
}

// Product — товар заказа и стоимость доставки.
type Product struct {
	Name          string
	Image         ProductImage
	Quantity      int
	Price         decimal.Decimal
	ShippingPrice decimal.Decimal
	FreeShipping  bool
}

// SetFreeShipping переключает бесплатную доставку; включение обнуляет стоимость доставки.
func (p *Product) SetFreeShipping(free bool) {
	p.FreeShipping = free
	if free {
		p.ShippingPrice = decimal.Zero
	}
}

// SetShippingPrice задаёт стоимость доставки, пока доставка не бесплатная.
func (p *Product) SetShippingPrice(price decimal.Decimal) {
	if p.FreeShipping {
		p.ShippingPrice = decimal.Zero
		return
	}
	p.ShippingPrice = price
}

// Tracking — данные отслеживания заказа.
type Tracking struct {
	// Code хранится в нормализованном виде (см. NormalizeTrackingCode).
	Code                  string
	Company               string
	Steps                 []TimedStep
	EstimatedDeliveryDate *time.Time
}

// OrderDraft — изменяемые пользователем части заказа.
type OrderDraft struct {
	Customer Customer
	Product  Product
	Tracking Tracking
}

// Order агрегирует клиента, товар и отслеживание под одним идентификатором и владельцем.
type Order struct {
	ID        string
	UserID    string
	Customer  Customer
	Product   Product
	Tracking  Tracking
	CreatedAt time.Time
}

// NormalizeTrackingCode обрезает пробелы и приводит код к верхнему регистру.
func NormalizeTrackingCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewOrder создаёт заказ из черновика: назначает ID, владельца и время создания.
func NewOrder(draft OrderDraft, userID string, now time.Time) (Order, error) {
	order := Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Customer:  draft.Customer,
		Product:   draft.Product,
		Tracking:  draft.Tracking,
		CreatedAt: now.UTC(),
	}
	order.Tracking.Code = NormalizeTrackingCode(order.Tracking.Code)
	order.Product.SetFreeShipping(order.Product.FreeShipping)

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return Order{}, errors.Join(errs...)
	}
	return order, nil
}

// ApplyUpdate возвращает заказ с полями из patch; ID, владелец и время создания не меняются.
// Если patch не содержит изображения, сохраняется текущее.
func (o Order) ApplyUpdate(patch OrderDraft) (Order, error) {
	updated := o
	updated.Customer = patch.Customer
	updated.Product = patch.Product
	updated.Tracking = patch.Tracking
	updated.Tracking.Code = NormalizeTrackingCode(patch.Tracking.Code)
	updated.Product.SetFreeShipping(patch.Product.FreeShipping)
	if patch.Product.Image.Empty() {
		updated.Product.Image = o.Product.Image
	}

	if errs := updated.ValidateInvariants(); len(errs) > 0 {
		return Order{}, errors.Join(errs...)
	}
	return updated, nil
}

// AppendStep валидирует шаг и добавляет его в конец истории.
// Время шага назначит хранилище при сохранении.
func (o *Order) AppendStep(step Step) error {
	if err := step.Validate(); err != nil {
		return err
	}
	o.Tracking.Steps = append(o.Tracking.Steps, TimedStep{Step: step})
	return nil
}

// Timeline возвращает упорядоченные шаги и текущий статус заказа.
func (o Order) Timeline() Timeline {
	return BuildTimeline(o.Tracking.Steps)
}

// ValidateInvariants проверяет инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if strings.TrimSpace(o.Customer.FirstName) == "" {
		errs = append(errs, ErrFirstNameRequired)
	}
	if strings.TrimSpace(o.Customer.LastName) == "" {
		errs = append(errs, ErrLastNameRequired)
	}
	if strings.TrimSpace(o.Product.Name) == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if o.Product.Quantity <= 0 {
		errs = append(errs, ErrProductQtyInvalid)
	}
	if o.Product.Price.IsNegative() {
		errs = append(errs, ErrProductPriceNegative)
	}
	if o.Product.ShippingPrice.IsNegative() {
		errs = append(errs, ErrShippingPriceNegative)
	}
	if o.Product.FreeShipping && !o.Product.ShippingPrice.IsZero() {
		errs = append(errs, ErrShippingNotFree)
	}
	if err := o.Product.Image.Validate(); err != nil {
		errs = append(errs, err)
	}
	if NormalizeTrackingCode(o.Tracking.Code) == "" {
		errs = append(errs, ErrTrackingCodeRequired)
	}
	for _, step := range o.Tracking.Steps {
		if err := step.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}
