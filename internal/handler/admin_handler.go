package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/roomdesk/service-reservation/internal/application"
	"github.com/roomdesk/service-reservation/pkg/auth"
	"github.com/roomdesk/service-reservation/pkg/middleware"
	"github.com/roomdesk/service-reservation/pkg/response"
)

// AdminHandler handles admin-only HTTP requests.
type AdminHandler struct {
	reservations *application.ReservationService
	users        *application.UserService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(reservations *application.ReservationService, users *application.UserService) *AdminHandler {
	return &AdminHandler{reservations: reservations, users: users}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.POST("/users", h.CreateUser)
		admin.GET("/stats/reservations", h.ReservationStats)
	}
}

// CreateUser handles POST /api/v1/admin/users; admins may assign any role.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req application.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.users.CreateUser(c.Request.Context(), req, true)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ReservationStats handles GET /api/v1/admin/stats/reservations.
func (h *AdminHandler) ReservationStats(c *gin.Context) {
	stats, err := h.reservations.GetReservationStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
