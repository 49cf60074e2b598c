package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"healthline/internal/service"
)

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) sendChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	reply, err := h.chat.Reply(c.Request.Context(), req.Message)
	if err != nil {
		if errors.Is(err, service.ErrUpstream) {
			h.logger.Warnf("chat upstream: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "AI service unavailable", "reply": reply})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
