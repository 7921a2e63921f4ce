package httptransport

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
)

// OrderService — операции с заказами, доступные через HTTP.
type OrderService interface {
	Create(ctx context.Context, draft domain.OrderDraft) (domain.Order, error)
	Update(ctx context.Context, orderID string, patch domain.OrderDraft) (domain.Order, error)
	Delete(ctx context.Context, orderID string) error
	AppendStep(ctx context.Context, orderID string, step domain.Step) (domain.Order, error)
	ListMine(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, orderID string) (domain.Order, error)
	Lookup(ctx context.Context, code string) (domain.Order, domain.Timeline, bool, error)
	Share(ctx context.Context, orderID string) (domain.Share, error)
}

// AuthService — вход, выход и проверка сессий.
type AuthService interface {
	Register(ctx context.Context, email, name, password string) (domain.User, error)
	Login(ctx context.Context, email, password string) (string, domain.User, error)
	Logout(ctx context.Context, token string) error
	Resolve(ctx context.Context, token string) (string, error)
}

type handlers struct {
	orders    OrderService
	auth      AuthService
	validator *validatorv10.Validate
	logger    *log.Entry
}

func (h *handlers) register(c *gin.Context) {
	var req RegisterRequest
	if err := bindAndValidate(c, &req, h.validator); err != nil {
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeError(c, h.logger, "register user", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email, "name": user.Name})
}

func (h *handlers) login(c *gin.Context) {
	var req LoginRequest
	if err := bindAndValidate(c, &req, h.validator); err != nil {
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, "log in", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": user.ID, "email": user.Email, "name": user.Name},
	})
}

func (h *handlers) logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), c.GetString(ctxKeyToken)); err != nil {
		writeError(c, h.logger, "log out", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.orders.ListMine(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "list orders", err)
		return
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, newOrderResponse(order))
	}
	c.JSON(http.StatusOK, gin.H{"orders": resp})
}

func (h *handlers) createOrder(c *gin.Context) {
	var req OrderRequest
	if err := bindAndValidate(c, &req, h.validator); err != nil {
		return
	}
	draft, err := req.Draft()
	if err != nil {
		writeError(c, h.logger, "create order", err)
		return
	}

	order, err := h.orders.Create(c.Request.Context(), draft)
	if err != nil {
		writeError(c, h.logger, "create order", err)
		return
	}
	c.JSON(http.StatusCreated, newOrderResponse(order))
}

func (h *handlers) getOrder(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "load order", err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

// updateOrder заменяет заказ. Если steps не переданы, история шагов сохраняется.
func (h *handlers) updateOrder(c *gin.Context) {
	var req OrderRequest
	if err := bindAndValidate(c, &req, h.validator); err != nil {
		return
	}
	patch, err := req.Draft()
	if err != nil {
		writeError(c, h.logger, "update order", err)
		return
	}

	ctx := c.Request.Context()
	orderID := c.Param("id")
	if req.Tracking.Steps == nil {
		current, err := h.orders.Get(ctx, orderID)
		if err != nil {
			writeError(c, h.logger, "update order", err)
			return
		}
		patch.Tracking.Steps = current.Tracking.Steps
	}

	order, err := h.orders.Update(ctx, orderID, patch)
	if err != nil {
		writeError(c, h.logger, "update order", err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

func (h *handlers) deleteOrder(c *gin.Context) {
	if err := h.orders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, "delete order", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) appendStep(c *gin.Context) {
	var req StepRequest
	if err := bindAndValidate(c, &req, h.validator); err != nil {
		return
	}
	step, err := req.Step()
	if err != nil {
		writeError(c, h.logger, "append step to order", err)
		return
	}

	order, err := h.orders.AppendStep(c.Request.Context(), c.Param("id"), step)
	if err != nil {
		writeError(c, h.logger, "append step to order", err)
		return
	}
	c.JSON(http.StatusCreated, newOrderResponse(order))
}

func (h *handlers) shareOrder(c *gin.Context) {
	share, err := h.orders.Share(c.Request.Context(), c.Param("id"))
	phoneValid := true
	if errors.Is(err, domain.ErrInvalidPhone) {
		phoneValid = false
		err = nil
	}
	if err != nil {
		writeError(c, h.logger, "share order", err)
		return
	}
	c.JSON(http.StatusOK, ShareResponse{
		Link:        share.Link,
		Message:     share.Message,
		WhatsAppURL: share.WhatsAppURL,
		PhoneValid:  phoneValid,
	})
}

// lookup — публичная страница отслеживания. Отсутствие заказа — обычный 404 без записи в лог ошибок.
func (h *handlers) lookup(c *gin.Context) {
	order, timeline, found, err := h.orders.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, h.logger, "look up order", err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "no order with this tracking code"})
		return
	}
	c.JSON(http.StatusOK, newPublicTrackingResponse(order, timeline))
}

func (h *handlers) capitals(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"capitals": domain.Capitals()})
}

// serveImage отдаёт изображение товара с исходным Content-Type.
func serveImage(images ImageSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		obj, ok := images.Get(c.Param("key"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		contentType := obj.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Data(http.StatusOK, contentType, obj.Data)
	}
}
