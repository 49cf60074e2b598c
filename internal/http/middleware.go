package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"healthline/internal/auth"
	"healthline/internal/domain"
)

const (
	headerUserID    = "user-id"
	headerUserRole  = "user-role"
	headerRequestID = "X-Request-ID"

	identityKey  = "identity"
	requestIDKey = "request_id"
)

// identity resolves the caller from a bearer token, or from the legacy
// user-id/user-role headers when trusted. An invalid token is rejected even
// if headers are present.
func (h *Handler) identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := auth.BearerToken(c.GetHeader("Authorization")); token != "" {
			if h.tokens == nil {
				abortError(c, http.StatusUnauthorized, "token authentication is not configured")
				return
			}
			id, err := h.tokens.Parse(token)
			if err != nil {
				abortError(c, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			c.Set(identityKey, id)
			c.Next()
			return
		}

		if h.trustHeaders {
			if id, ok := identityFromHeaders(c.GetHeader(headerUserID), c.GetHeader(headerUserRole)); ok {
				c.Set(identityKey, id)
			}
		}
		c.Next()
	}
}

func identityFromHeaders(userID, role string) (domain.Identity, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(userID), 10, 64)
	if err != nil || id <= 0 {
		return domain.Identity{}, false
	}
	r := domain.Role(strings.ToLower(strings.TrimSpace(role)))
	if !r.Valid() {
		return domain.Identity{}, false
	}
	return domain.Identity{UserID: id, Role: r}, true
}

func requireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentIdentity(c); !ok {
			abortError(c, http.StatusUnauthorized, "authentication required")
			return
		}
		c.Next()
	}
}

func currentIdentity(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(headerRequestID, requestID)

		c.Next()

		fields := logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  requestID,
		}
		if id, ok := currentIdentity(c); ok {
			fields["user_id"] = id.UserID
			fields["role"] = id.Role
		}
		entry := logger.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request")
		case status >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}
