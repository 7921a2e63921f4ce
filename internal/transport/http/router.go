package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/parceltrack/internal/metrics"
	"github.com/vladislavdragonenkov/parceltrack/internal/storage/blob"
)

// ImagePath — префикс, под которым отдаются изображения из in-memory хранилища.
const ImagePath = "/product-images"

// ImageSource отдаёт сохранённые изображения товаров по ключу.
type ImageSource interface {
	Get(key string) (blob.Object, bool)
}

// RouterConfig группирует зависимости HTTP API.
type RouterConfig struct {
	Orders    OrderService
	Auth      AuthService
	// Images задаётся только для in-memory хранилища; S3 отдаёт файлы сам.
	Images    ImageSource
	Metrics   *metrics.HTTPMetrics
	Validator *validatorv10.Validate
	Logger    *log.Entry
}

// NewRouter собирает gin.Engine со всеми маршрутами API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}
	v := cfg.Validator
	if v == nil {
		v = NewValidator()
	}

	h := &handlers{
		orders:    cfg.Orders,
		auth:      cfg.Auth,
		validator: v,
		logger:    logger,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), observeRequests(cfg.Metrics))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	if cfg.Images != nil {
		r.GET(ImagePath+"/:key", serveImage(cfg.Images))
	}

	api := r.Group("/api")
	api.GET("/capitals", h.capitals)
	api.GET("/tracking/:code", h.lookup)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.register)
	authGroup.POST("/login", h.login)
	authGroup.POST("/logout", requireSession(cfg.Auth, logger), h.logout)

	orders := api.Group("/orders", requireSession(cfg.Auth, logger))
	orders.GET("", h.listOrders)
	orders.POST("", h.createOrder)
	orders.GET("/:id", h.getOrder)
	orders.PUT("/:id", h.updateOrder)
	orders.DELETE("/:id", h.deleteOrder)
	orders.POST("/:id/steps", h.appendStep)
	orders.GET("/:id/share", h.shareOrder)

	return r
}
