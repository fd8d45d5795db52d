package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateIntent(c *gin.Context) {
	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	intent, err := h.payments.CreateIntent(c.Request.Context(), currentClaims(c).UserID(), req.Amount)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, CreateIntentResponse{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID})
}

func (h *Handler) PaymentConfig(c *gin.Context) {
	c.JSON(http.StatusOK, PaymentConfigResponse{PublishableKey: h.payments.PublishableKey()})
}
