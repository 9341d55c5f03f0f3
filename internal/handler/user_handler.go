package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roomdesk/service-reservation/internal/application"
	"github.com/roomdesk/service-reservation/pkg/auth"
	"github.com/roomdesk/service-reservation/pkg/middleware"
	"github.com/roomdesk/service-reservation/pkg/response"
)

// UserHandler handles HTTP requests for user accounts.
type UserHandler struct {
	service *application.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *application.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes registers user routes. Sign-up is public.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	adminOnly := middleware.RequireRole(auth.RoleAdmin)

	r.POST("/api/v1/users", h.Register)

	users := r.Group("/api/v1/users")
	users.Use(middleware.AuthMiddleware(jwtManager))
	{
		users.GET("", adminOnly, h.SearchUsers)
		users.GET("/:id", h.GetUser)
		users.PATCH("/:id", h.UpdateUser)
		users.DELETE("/:id", adminOnly, h.DeleteUser)
	}
}

// Register handles POST /api/v1/users (self sign-up as CUSTOMER).
func (h *UserHandler) Register(c *gin.Context) {
	var req application.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateUser(c.Request.Context(), req, false)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// SearchUsers handles GET /api/v1/users?search=.
func (h *UserHandler) SearchUsers(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.SearchUsers(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetUser handles GET /api/v1/users/:id.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := selfOrAdmin(c)
	if !ok {
		return
	}

	result, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateUser handles PATCH /api/v1/users/:id.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := selfOrAdmin(c)
	if !ok {
		return
	}

	var req application.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	role, _ := middleware.GetUserRole(c)
	result, err := h.service.UpdateUser(c.Request.Context(), id, req, role == auth.RoleAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteUser handles DELETE /api/v1/users/:id.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user ID")
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"id": id})
}

// selfOrAdmin parses the :id path parameter and allows the request only for
// admins or the user themself.
func selfOrAdmin(c *gin.Context) (uuid.UUID, bool) {
	userID, role, ok := caller(c)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user ID")
		return uuid.Nil, false
	}
	if role != auth.RoleAdmin && id != userID {
		response.Forbidden(c, "insufficient permissions")
		return uuid.Nil, false
	}
	return id, true
}
