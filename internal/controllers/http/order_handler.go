package http

import (
	"net/http"

	"cartify/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), currentClaims(c).UserID(), req.toOrder())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) ListOrders(c *gin.Context) {
	claims := currentClaims(c)
	orders, err := h.orders.ListOrders(c.Request.Context(), claims.UserID(), claims.Role == domain.RoleAdmin)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder serves the order confirmation page. Users may only read their own orders.
func (h *Handler) GetOrder(c *gin.Context) {
	claims := currentClaims(c)
	order, err := h.orders.GetOrderByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if claims.Role != domain.RoleAdmin && order.UserID != claims.UserID() {
		respondError(c, h.log, domain.ErrOrderNotFound)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) OrderStats(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.OrderStatus)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
