package httptransport

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
)

const dateLayout = "2006-01-02"

// LoginRequest — тело POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest — тело POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// CustomerRequest — данные получателя.
type CustomerRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone"`
	CPF       string `json:"cpf"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state" validate:"omitempty,len=2"`
	ZipCode   string `json:"zip_code"`
}

// ImageUpload — изображение, переданное в запросе; Data приходит в base64.
type ImageUpload struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
	Data        []byte `json:"data" validate:"required"`
}

// ProductRequest — товар заказа. Цены передаются строками, чтобы не терять точность.
type ProductRequest struct {
	Name          string          `json:"name" validate:"required"`
	ImageURL      string          `json:"image_url" validate:"omitempty,url"`
	Image         *ImageUpload    `json:"image"`
	Quantity      int             `json:"quantity" validate:"min=1"`
	Price         decimal.Decimal `json:"price"`
	ShippingPrice decimal.Decimal `json:"shipping_price"`
	FreeShipping  bool            `json:"free_shipping"`
}

// StepRequest — шаг отслеживания. Для outForDelivery город передаётся в поле city.
type StepRequest struct {
	Type        string `json:"type" validate:"required,step_type"`
	City        string `json:"city"`
	Origin      string `json:"origin" validate:"omitempty,capital"`
	Destination string `json:"destination" validate:"omitempty,capital"`
}

// TrackingRequest — данные отслеживания.
type TrackingRequest struct {
	Code                  string        `json:"code" validate:"required"`
	Company               string        `json:"company"`
	EstimatedDeliveryDate string        `json:"estimated_delivery_date" validate:"omitempty,datetime=2006-01-02"`
	Steps                 []StepRequest `json:"steps" validate:"omitempty,dive"`
}

// OrderRequest — тело POST /api/orders и PUT /api/orders/:id.
type OrderRequest struct {
	Customer CustomerRequest `json:"customer"`
	Product  ProductRequest  `json:"product"`
	Tracking TrackingRequest `json:"tracking"`
}

// Draft переводит запрос в доменный черновик заказа.
func (r OrderRequest) Draft() (domain.OrderDraft, error) {
	steps := make([]domain.TimedStep, 0, len(r.Tracking.Steps))
	for _, s := range r.Tracking.Steps {
		step, err := s.Step()
		if err != nil {
			return domain.OrderDraft{}, err
		}
		steps = append(steps, domain.TimedStep{Step: step})
	}

	var eta *time.Time
	if r.Tracking.EstimatedDeliveryDate != "" {
		parsed, err := time.Parse(dateLayout, r.Tracking.EstimatedDeliveryDate)
		if err != nil {
			return domain.OrderDraft{}, err
		}
		eta = &parsed
	}

	image := domain.ProductImage{URL: r.Product.ImageURL}
	if up := r.Product.Image; up != nil {
		image.Pending = &domain.PendingImage{
			Filename:    up.Filename,
			ContentType: up.ContentType,
			Data:        up.Data,
		}
	}

	product := domain.Product{
		Name:     r.Product.Name,
		Image:    image,
		Quantity: r.Product.Quantity,
		Price:    r.Product.Price,
	}
	product.SetFreeShipping(r.Product.FreeShipping)
	product.SetShippingPrice(r.Product.ShippingPrice)

	return domain.OrderDraft{
		Customer: domain.Customer{
			FirstName: r.Customer.FirstName,
			LastName:  r.Customer.LastName,
			Phone:     r.Customer.Phone,
			CPF:       r.Customer.CPF,
			Address:   r.Customer.Address,
			City:      r.Customer.City,
			State:     r.Customer.State,
			ZipCode:   r.Customer.ZipCode,
		},
		Product: product,
		Tracking: domain.Tracking{
			Code:                  r.Tracking.Code,
			Company:               r.Tracking.Company,
			Steps:                 steps,
			EstimatedDeliveryDate: eta,
		},
	}, nil
}

// Step собирает и валидирует доменный шаг.
func (r StepRequest) Step() (domain.Step, error) {
	step, err := domain.ParseStep(r.Type, r.City, r.Origin, r.Destination, r.City)
	if err != nil {
		return domain.Step{}, err
	}
	if err := step.Validate(); err != nil {
		return domain.Step{}, err
	}
	return step, nil
}

// StepResponse — шаг в ответе API.
type StepResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	City        string    `json:"city,omitempty"`
	Origin      string    `json:"origin,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// StatusResponse — текущий статус заказа.
type StatusResponse struct {
	Type        string     `json:"type,omitempty"`
	Description string     `json:"description"`
	Terminal    bool       `json:"terminal"`
	Since       *time.Time `json:"since,omitempty"`
}

// OrderResponse — заказ в ответе API владельцу.
type OrderResponse struct {
	ID        string          `json:"id"`
	Customer  CustomerRequest `json:"customer"`
	Product   ProductView     `json:"product"`
	Tracking  TrackingView    `json:"tracking"`
	Status    StatusResponse  `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// ProductView — товар в ответе API.
type ProductView struct {
	Name          string          `json:"name"`
	ImageURL      string          `json:"image_url,omitempty"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	ShippingPrice decimal.Decimal `json:"shipping_price"`
	FreeShipping  bool            `json:"free_shipping"`
}

// TrackingView — данные отслеживания в ответе API.
type TrackingView struct {
	Code                  string         `json:"code"`
	Company               string         `json:"company,omitempty"`
	EstimatedDeliveryDate string         `json:"estimated_delivery_date,omitempty"`
	Steps                 []StepResponse `json:"steps"`
}

// PublicTrackingResponse — ответ публичной страницы отслеживания; без контактов клиента.
type PublicTrackingResponse struct {
	CustomerFirstName string         `json:"customer_first_name"`
	Destination       string         `json:"destination,omitempty"`
	Product           ProductView    `json:"product"`
	Tracking          TrackingView   `json:"tracking"`
	Status            StatusResponse `json:"status"`
	Summary           string         `json:"summary"`
}

// ShareResponse — ссылка и сообщение для клиента.
type ShareResponse struct {
	Link        string `json:"link"`
	Message     string `json:"message"`
	WhatsAppURL string `json:"whatsapp_url,omitempty"`
	PhoneValid  bool   `json:"phone_valid"`
}

func newOrderResponse(order domain.Order) OrderResponse {
	timeline := order.Timeline()
	c := order.Customer
	return OrderResponse{
		ID: order.ID,
		Customer: CustomerRequest{
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Phone:     c.Phone,
			CPF:       c.CPF,
			Address:   c.Address,
			City:      c.City,
			State:     c.State,
			ZipCode:   c.ZipCode,
		},
		Product:   newProductView(order.Product),
		Tracking:  newTrackingView(order.Tracking, timeline),
		Status:    newStatusResponse(timeline.Current),
		CreatedAt: order.CreatedAt,
	}
}

func newPublicTrackingResponse(order domain.Order, timeline domain.Timeline) PublicTrackingResponse {
	destination := order.Customer.City
	if order.Customer.State != "" {
		destination += " - " + order.Customer.State
	}
	return PublicTrackingResponse{
		CustomerFirstName: order.Customer.FirstName,
		Destination:       destination,
		Product:           newProductView(order.Product),
		Tracking:          newTrackingView(order.Tracking, timeline),
		Status:            newStatusResponse(timeline.Current),
		Summary:           timeline.Current.Describe(),
	}
}

func newProductView(p domain.Product) ProductView {
	return ProductView{
		Name:          p.Name,
		ImageURL:      p.Image.URL,
		Quantity:      p.Quantity,
		Price:         p.Price,
		ShippingPrice: p.ShippingPrice,
		FreeShipping:  p.FreeShipping,
	}
}

func newTrackingView(t domain.Tracking, timeline domain.Timeline) TrackingView {
	view := TrackingView{
		Code:    t.Code,
		Company: t.Company,
		Steps:   make([]StepResponse, 0, len(timeline.Steps)),
	}
	if t.EstimatedDeliveryDate != nil {
		view.EstimatedDeliveryDate = t.EstimatedDeliveryDate.Format(dateLayout)
	}
	for _, step := range timeline.Steps {
		view.Steps = append(view.Steps, newStepResponse(step))
	}
	return view
}

func newStepResponse(step domain.TimedStep) StepResponse {
	resp := StepResponse{
		ID:          step.ID,
		Type:        string(step.Type),
		Description: domain.Describe(step.Step),
		CreatedAt:   step.CreatedAt,
	}
	switch step.Type {
	case domain.StepForwarded:
		resp.City = string(step.City)
	case domain.StepInTransit:
		resp.Origin = string(step.Origin)
		resp.Destination = string(step.Destination)
	case domain.StepOutForDelivery:
		resp.City = step.DeliveryCity
	}
	return resp
}

func newStatusResponse(status domain.Status) StatusResponse {
	resp := StatusResponse{
		Description: status.Describe(),
		Terminal:    status.Terminal(),
	}
	if !status.Awaiting {
		resp.Type = string(status.Step.Type)
		since := status.At
		resp.Since = &since
	}
	return resp
}
