package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/roomdesk/service-reservation/internal/application"
	"github.com/roomdesk/service-reservation/pkg/auth"
	"github.com/roomdesk/service-reservation/pkg/middleware"
	"github.com/roomdesk/service-reservation/pkg/response"
)

// AuthHandler handles login and token validation.
type AuthHandler struct {
	service *application.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *application.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterRoutes registers auth routes. loginLimiter guards the login endpoint.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager, loginLimiter gin.HandlerFunc) {
	authGroup := r.Group("/api/v1/auth")
	{
		authGroup.POST("/login", loginLimiter, h.Login)
		authGroup.GET("/validate", middleware.AuthMiddleware(jwtManager), h.Validate)
	}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req application.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Validate handles GET /api/v1/auth/validate.
func (h *AuthHandler) Validate(c *gin.Context) {
	userID, _, ok := caller(c)
	if !ok {
		return
	}

	result, err := h.service.Validate(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
