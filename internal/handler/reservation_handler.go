package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roomdesk/service-reservation/internal/application"
	"github.com/roomdesk/service-reservation/pkg/auth"
	"github.com/roomdesk/service-reservation/pkg/domain"
	"github.com/roomdesk/service-reservation/pkg/middleware"
	"github.com/roomdesk/service-reservation/pkg/response"
)

// ReservationHandler handles HTTP requests for reservation operations.
// Customers only see and change their own reservations.
type ReservationHandler struct {
	service *application.ReservationService
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(service *application.ReservationService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

// RegisterRoutes registers all reservation routes on the given router group.
func (h *ReservationHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	reservations := r.Group("/api/v1/reservations")
	reservations.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin, auth.RoleCustomer))
	{
		reservations.POST("", h.CreateReservation)
		reservations.GET("", h.ListReservations)
		reservations.GET("/:id", h.GetReservation)
		reservations.PUT("/:id", h.UpdateReservation)
		reservations.POST("/:id/cancel", h.CancelReservation)
		reservations.DELETE("/:id", h.DeleteReservation)
	}
}

// CreateReservation handles POST /api/v1/reservations.
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	userID, role, ok := caller(c)
	if !ok {
		return
	}

	var req application.ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.UserID == uuid.Nil {
		req.UserID = userID
	}
	if role != auth.RoleAdmin && req.UserID != userID {
		response.Forbidden(c, "customers can only reserve for themselves")
		return
	}

	result, err := h.service.CreateReservation(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListReservations handles GET /api/v1/reservations.
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	userID, role, ok := caller(c)
	if !ok {
		return
	}
	page, limit := parsePagination(c)

	var (
		result *domain.PaginatedResult[application.ReservationDTO]
		err    error
	)
	if role == auth.RoleAdmin {
		result, err = h.service.ListReservations(c.Request.Context(), page, limit)
	} else {
		result, err = h.service.ListUserReservations(c.Request.Context(), userID, page, limit)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetReservation handles GET /api/v1/reservations/:id.
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	existing, ok := h.loadOwned(c)
	if !ok {
		return
	}
	response.Success(c, existing)
}

// UpdateReservation handles PUT /api/v1/reservations/:id.
func (h *ReservationHandler) UpdateReservation(c *gin.Context) {
	existing, ok := h.loadOwned(c)
	if !ok {
		return
	}

	var req application.ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.UserID == uuid.Nil {
		req.UserID = existing.User.ID
	}
	if role, _ := middleware.GetUserRole(c); role != auth.RoleAdmin && req.UserID != existing.User.ID {
		response.Forbidden(c, "customers cannot reassign reservations")
		return
	}

	result, err := h.service.UpdateReservation(c.Request.Context(), existing.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelReservation handles POST /api/v1/reservations/:id/cancel.
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	existing, ok := h.loadOwned(c)
	if !ok {
		return
	}

	result, err := h.service.CancelReservation(c.Request.Context(), existing.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteReservation handles DELETE /api/v1/reservations/:id.
func (h *ReservationHandler) DeleteReservation(c *gin.Context) {
	existing, ok := h.loadOwned(c)
	if !ok {
		return
	}

	result, err := h.service.DeleteReservation(c.Request.Context(), existing.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// loadOwned fetches the reservation named in the path and checks that a
// customer caller owns it. It writes the error response itself.
func (h *ReservationHandler) loadOwned(c *gin.Context) (*application.ReservationDTO, bool) {
	userID, role, ok := caller(c)
	if !ok {
		return nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid reservation ID")
		return nil, false
	}

	existing, err := h.service.GetReservation(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if role != auth.RoleAdmin && existing.User.ID != userID {
		response.Forbidden(c, "reservation does not belong to this user")
		return nil, false
	}
	return existing, true
}

// caller returns the authenticated user and role, answering 401 when absent.
func caller(c *gin.Context) (uuid.UUID, auth.Role, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return uuid.Nil, "", false
	}
	role, ok := middleware.GetUserRole(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return uuid.Nil, "", false
	}
	return userID, role, true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
