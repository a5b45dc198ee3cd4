package history

import (
	"net/http"

	"evinventory/internal/middleware"
	"evinventory/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HistoryHandler struct {
	service *HistoryService
	logger  *zap.Logger
}

func NewHistoryHandler(service *HistoryService, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{service: service, logger: logger}
}

func (h *HistoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/stocks/:id/history", h.GetStockHistory)
}

func (h *HistoryHandler) GetStockHistory(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch stock history", err)
		return
	}
	id, err := middleware.UUIDParam(c, "id")
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Invalid stock ID", err)
		return
	}

	var pagination models.Pagination
	if err := c.ShouldBindQuery(&pagination); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	page, err := h.service.GetStockHistory(c.Request.Context(), sc, id, pagination)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch stock history", err)
		return
	}

	c.JSON(http.StatusOK, page)
}
