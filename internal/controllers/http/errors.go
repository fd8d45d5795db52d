package http

import (
	"errors"
	"log/slog"
	"net/http"

	"cartify/internal/domain"
	"cartify/internal/infra/payment"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrUserNotFound), errors.Is(err, payment.ErrIntentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateSKU), errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrDuplicateRequest):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPaymentFailed):
		return http.StatusPaymentRequired
	}
	return http.StatusInternalServerError
}

// respondError writes the error body. Server errors are logged and never echoed.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, gin.H{"message": "Server error"})
		return
	}

	body := gin.H{"message": err.Error()}
	var v *domain.ValidationError
	if errors.As(err, &v) {
		body["fields"] = v.Fields
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": msg})
}
