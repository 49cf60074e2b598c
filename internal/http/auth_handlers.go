package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"healthline/internal/domain"
	"healthline/internal/service"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    int64       `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

type LoginResponse struct {
	Message   string       `json:"message"`
	User      UserResponse `json:"user"`
	Token     string       `json:"token,omitempty"`
	ExpiresAt string       `json:"expires_at,omitempty"`
}

func userToResponse(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Role: u.Role}
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		writeError(c, err)
		return
	}

	h.logger.WithField("user_id", user.ID).Infof("registered %s", user.Role)
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "message": "User created successfully"})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// same body for unknown email and wrong password
			c.JSON(statusFor(err), gin.H{"error": service.ErrInvalidCredentials.Error()})
			return
		}
		writeError(c, err)
		return
	}

	resp := LoginResponse{
		Message: "Login successful",
		User:    userToResponse(*user),
	}
	if h.tokens != nil {
		token, expiresAt, err := h.tokens.Issue(*user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		resp.Token = token
		resp.ExpiresAt = expiresAt.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) me(c *gin.Context) {
	id, _ := currentIdentity(c)
	user, err := h.users.GetByID(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}
