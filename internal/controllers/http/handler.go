package http

import (
	"log/slog"
	"net/http"

	rediscache "cartify/internal/infra/redis"
	"cartify/internal/realtime"
	"cartify/internal/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	products *services.ProductService
	orders   *services.OrderService
	auth     *services.AuthService
	payments *services.PaymentService
	hub      *realtime.Hub
	idem     rediscache.IdempotencyStoreInterface
	log      *slog.Logger

	allowOrigin func(string) bool
}

func NewHandler(
	products *services.ProductService,
	orders *services.OrderService,
	authSvc *services.AuthService,
	payments *services.PaymentService,
	hub *realtime.Hub,
	log *slog.Logger,
) *Handler {
	return &Handler{
		products:    products,
		orders:      orders,
		auth:        authSvc,
		payments:    payments,
		hub:         hub,
		log:         log,
		allowOrigin: func(string) bool { return true },
	}
}

func (h *Handler) SetIdempotencyStore(s rediscache.IdempotencyStoreInterface) {
	h.idem = s
}

// SetOriginPolicy restricts which browser origins may open the realtime channel.
func (h *Handler) SetOriginPolicy(allow func(origin string) bool) {
	h.allowOrigin = allow
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", realtime.NewWebsocketHandler(h.hub, h.log, func(req *http.Request) bool {
		return h.allowOrigin(req.Header.Get("Origin"))
	}))

	api := r.Group("/api")
	api.GET("/health", h.Health)
	api.GET("/events", realtime.NewSSEHandler(h.hub, h.log))

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.GET("/me", h.Protect(), h.Me)

	products := api.Group("/products")
	products.GET("", h.ListProducts)
	products.GET("/:id", h.GetProduct)
	products.POST("", h.Protect(), h.AdminOnly(), h.CreateProduct)
	products.PUT("/:id", h.Protect(), h.AdminOnly(), h.UpdateProduct)
	products.DELETE("/:id", h.Protect(), h.AdminOnly(), h.DeleteProduct)

	orders := api.Group("/orders", h.Protect())
	orders.POST("", h.Idempotent("orders"), h.CreateOrder)
	orders.GET("", h.ListOrders)
	orders.GET("/stats", h.AdminOnly(), h.OrderStats)
	orders.GET("/:id", h.GetOrder)
	orders.PUT("/:id", h.AdminOnly(), h.UpdateOrderStatus)

	pay := api.Group("/payment")
	pay.POST("/create-intent", h.Protect(), h.CreateIntent)
	pay.GET("/config", h.PaymentConfig)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Sessions: h.hub.SessionCount()})
}
