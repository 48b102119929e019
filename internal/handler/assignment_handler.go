package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wrenchly/service-booking/internal/application"
	"github.com/wrenchly/service-booking/internal/auth"
	"github.com/wrenchly/service-booking/internal/middleware"
	"github.com/wrenchly/service-booking/internal/response"
)

// AssignmentHandler handles HTTP requests for jockey assignments.
type AssignmentHandler struct {
	service *application.AssignmentService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(service *application.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

// RegisterRoutes registers all assignment routes on the given router group.
func (h *AssignmentHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	jockeyRole := middleware.RequireRole(auth.RoleJockey)

	assignments := r.Group("/api/v1/assignments")
	assignments.Use(authMW)
	{
		assignments.GET("", jockeyRole, h.ListOpenAssignments)
		assignments.POST("/:id/accept", jockeyRole, h.AcceptAssignment)
		assignments.POST("/:id/complete", jockeyRole, h.CompleteAssignment)
	}

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.GET("/:id/assignments", h.ListBookingAssignments)
	}
}

// ListOpenAssignments handles GET /api/v1/assignments.
func (h *AssignmentHandler) ListOpenAssignments(c *gin.Context) {
	jockeyID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetOpenAssignments(c.Request.Context(), jockeyID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AcceptAssignment handles POST /api/v1/assignments/:id/accept.
func (h *AssignmentHandler) AcceptAssignment(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid assignment ID")
		return
	}

	jockeyID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.AcceptAssignment(c.Request.Context(), jockeyID, assignmentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CompleteAssignment handles POST /api/v1/assignments/:id/complete.
func (h *AssignmentHandler) CompleteAssignment(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid assignment ID")
		return
	}

	jockeyID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.CompleteAssignment(c.Request.Context(), jockeyID, assignmentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListBookingAssignments handles GET /api/v1/bookings/:id/assignments.
func (h *AssignmentHandler) ListBookingAssignments(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.GetBookingAssignments(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
