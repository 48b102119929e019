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

// ExtensionHandler handles HTTP requests for the extension workflow.
type ExtensionHandler struct {
	service *application.ExtensionService
}

// NewExtensionHandler creates a new ExtensionHandler.
func NewExtensionHandler(service *application.ExtensionService) *ExtensionHandler {
	return &ExtensionHandler{service: service}
}

// RegisterRoutes registers all extension routes on the given router group.
func (h *ExtensionHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("/:id/extensions", middleware.RequireRole(auth.RoleWorkshop), h.CreateExtension)
		bookings.GET("/:id/extensions", h.ListExtensions)
	}

	extensions := r.Group("/api/v1/extensions")
	extensions.Use(authMW)
	{
		extensions.GET("/:id", h.GetExtension)
		extensions.POST("/:id/respond", middleware.RequireRole(auth.RoleCustomer), h.RespondToExtension)
	}
}

// CreateExtension handles POST /api/v1/bookings/:id/extensions.
func (h *ExtensionHandler) CreateExtension(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	workshopID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateExtensionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateExtension(c.Request.Context(), workshopID, bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListExtensions handles GET /api/v1/bookings/:id/extensions.
func (h *ExtensionHandler) ListExtensions(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.GetBookingExtensions(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetExtension handles GET /api/v1/extensions/:id.
func (h *ExtensionHandler) GetExtension(c *gin.Context) {
	extensionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid extension ID")
		return
	}

	result, err := h.service.GetExtension(c.Request.Context(), extensionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RespondToExtension handles POST /api/v1/extensions/:id/respond.
func (h *ExtensionHandler) RespondToExtension(c *gin.Context) {
	extensionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid extension ID")
		return
	}

	customerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.RespondExtensionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RespondToExtension(c.Request.Context(), customerID, extensionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
