package components

import (
	"net/http"

	"evinventory/internal/middleware"
	"evinventory/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ComponentHandler struct {
	service *ComponentService
	logger  *zap.Logger
}

func NewComponentHandler(service *ComponentService, logger *zap.Logger) *ComponentHandler {
	return &ComponentHandler{service: service, logger: logger}
}

func (h *ComponentHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/components", h.GetComponents)
	router.GET("/components/:id", h.GetComponent)
	router.GET("/components/serial/:serial", h.GetComponentBySerial)
}

func (h *ComponentHandler) GetComponents(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch components", err)
		return
	}

	var query struct {
		WarehouseID     string `form:"warehouse_id"`
		TypeComponentID string `form:"type_component_id"`
		Status          string `form:"status"`
	}
	var pagination models.Pagination
	if c.ShouldBindQuery(&query) != nil || c.ShouldBindQuery(&pagination) != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	var filter Filter
	if query.WarehouseID != "" {
		id, err := uuid.Parse(query.WarehouseID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid warehouse_id"})
			return
		}
		filter.WarehouseID = &id
	}
	if query.TypeComponentID != "" {
		id, err := uuid.Parse(query.TypeComponentID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid type_component_id"})
			return
		}
		filter.TypeComponentID = &id
	}
	if query.Status != "" {
		status := models.ComponentStatus(query.Status)
		filter.Status = &status
	}

	page, err := h.service.List(c.Request.Context(), sc, filter, pagination)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch components", err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *ComponentHandler) GetComponent(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch component", err)
		return
	}
	id, err := middleware.UUIDParam(c, "id")
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Invalid component ID", err)
		return
	}

	component, err := h.service.GetByID(c.Request.Context(), sc, id)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch component", err)
		return
	}

	c.JSON(http.StatusOK, component)
}

func (h *ComponentHandler) GetComponentBySerial(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch component", err)
		return
	}

	component, err := h.service.GetBySerial(c.Request.Context(), sc, c.Param("serial"))
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch component", err)
		return
	}

	c.JSON(http.StatusOK, component)
}
