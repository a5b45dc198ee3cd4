package adjustments

import (
	"net/http"

	"evinventory/internal/middleware"
	"evinventory/pkg/models"
	"evinventory/pkg/roles"
	"evinventory/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AdjustmentHandler struct {
	service *AdjustmentService
	logger  *zap.Logger
}

func NewAdjustmentHandler(service *AdjustmentService, logger *zap.Logger) *AdjustmentHandler {
	return &AdjustmentHandler{service: service, logger: logger}
}

func (h *AdjustmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/adjustments",
		security.Authorize(roles.ServiceCenterManager, roles.PartsCoordinatorServiceCenter, roles.PartsCoordinatorCompany),
		h.CreateAdjustment,
	)
	router.GET("/adjustments", h.GetAdjustments)
	router.GET("/adjustments/:id", h.GetAdjustment)
}

func (h *AdjustmentHandler) CreateAdjustment(c *gin.Context) {
	identity, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to adjust stock", err)
		return
	}

	var request CreateAdjustmentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	adjustment, err := h.service.CreateAdjustment(c.Request.Context(), identity, sc, request)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to adjust stock", err)
		return
	}

	c.JSON(http.StatusCreated, adjustment)
}

type adjustmentListQuery struct {
	StockID        string `form:"stock_id"`
	WarehouseID    string `form:"warehouse_id"`
	AdjustmentType string `form:"adjustment_type"`
}

func (q adjustmentListQuery) filter() (models.AdjustmentFilter, bool) {
	var filter models.AdjustmentFilter
	if q.StockID != "" {
		id, err := uuid.Parse(q.StockID)
		if err != nil {
			return filter, false
		}
		filter.StockID = &id
	}
	if q.WarehouseID != "" {
		id, err := uuid.Parse(q.WarehouseID)
		if err != nil {
			return filter, false
		}
		filter.WarehouseID = &id
	}
	switch t := models.AdjustmentType(q.AdjustmentType); t {
	case "":
	case models.AdjustmentIn, models.AdjustmentOut:
		filter.AdjustmentType = &t
	default:
		return filter, false
	}
	return filter, true
}

func (h *AdjustmentHandler) GetAdjustments(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch adjustments", err)
		return
	}

	var query adjustmentListQuery
	var pagination models.Pagination
	if c.ShouldBindQuery(&query) != nil || c.ShouldBindQuery(&pagination) != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}
	filter, ok := query.filter()
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	page, err := h.service.List(c.Request.Context(), sc, filter, pagination)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch adjustments", err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *AdjustmentHandler) GetAdjustment(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch adjustment", err)
		return
	}
	id, err := middleware.UUIDParam(c, "id")
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Invalid adjustment ID", err)
		return
	}

	adjustment, err := h.service.GetByID(c.Request.Context(), sc, id)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch adjustment", err)
		return
	}

	c.JSON(http.StatusOK, adjustment)
}
