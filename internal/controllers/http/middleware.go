package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cartify/internal/auth"
	"cartify/internal/domain"
	rediscache "cartify/internal/infra/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	claimsKey         = "claims"
	IdempotencyHeader = "Idempotency-Key"
)

func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// AllowedOrigin accepts the configured client, any netlify preview, and non-browser callers.
func AllowedOrigin(clientURL string) func(origin string) bool {
	client := strings.TrimRight(clientURL, "/")
	return func(origin string) bool {
		if origin == "" || origin == client {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Scheme == "https" && strings.HasSuffix(u.Hostname(), ".netlify.app")
	}
}

func CORS(clientURL string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc:  AllowedOrigin(clientURL),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", IdempotencyHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func (h *Handler) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			respondError(c, h.log, domain.ErrUnauthorized)
			return
		}
		claims, err := h.auth.Authenticate(strings.TrimSpace(token))
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func (h *Handler) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := currentClaims(c)
		if claims == nil || claims.Role != domain.RoleAdmin {
			respondError(c, h.log, domain.ErrForbidden)
			return
		}
		c.Next()
	}
}

// Idempotent rejects a repeated Idempotency-Key from the same user. The key is
// released when the request fails so the client can retry it.
func (h *Handler) Idempotent(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if h.idem == nil || key == "" {
			c.Next()
			return
		}
		claims := currentClaims(c)
		if claims == nil {
			c.Next()
			return
		}

		full := rediscache.Key(scope, claims.UserID(), key)
		ctx := c.Request.Context()
		seen, err := h.idem.Seen(ctx, full)
		if err != nil {
			h.log.Warn("idempotency check failed", "error", err)
			c.Next()
			return
		}
		if seen {
			respondError(c, h.log, domain.ErrDuplicateRequest)
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := h.idem.Forget(ctx, full); err != nil {
				h.log.Warn("idempotency release failed", "error", err)
			}
		}
	}
}

func currentClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
