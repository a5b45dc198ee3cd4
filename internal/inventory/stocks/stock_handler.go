package stocks

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

type StockHandler struct {
	service *StockService
	logger  *zap.Logger
}

func NewStockHandler(service *StockService, logger *zap.Logger) *StockHandler {
	return &StockHandler{service: service, logger: logger}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/stocks", h.GetStocks)
	router.GET("/stocks/summary", h.GetSummary)
	router.GET("/stocks/:id", h.GetStock)
	router.GET("/warehouses/:id/stocks/:typeComponentId", h.FindStock)
	router.PATCH("/stocks/:id/reorder-point",
		security.Authorize(roles.ServiceCenterManager, roles.PartsCoordinatorCompany),
		h.UpdateReorderPoint,
	)
}

type stockListQuery struct {
	WarehouseID     string `form:"warehouse_id"`
	TypeComponentID string `form:"type_component_id"`
	LowStockOnly    bool   `form:"low_stock_only"`
}

func (q stockListQuery) filter() (models.StockFilter, bool) {
	var filter models.StockFilter
	filter.LowStockOnly = q.LowStockOnly
	if q.WarehouseID != "" {
		id, err := uuid.Parse(q.WarehouseID)
		if err != nil {
			return filter, false
		}
		filter.WarehouseID = &id
	}
	if q.TypeComponentID != "" {
		id, err := uuid.Parse(q.TypeComponentID)
		if err != nil {
			return filter, false
		}
		filter.TypeComponentID = &id
	}
	return filter, true
}

func (h *StockHandler) GetStocks(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch stocks", err)
		return
	}

	var query stockListQuery
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
		middleware.RespondWithError(c, h.logger, "Failed to fetch stocks", err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *StockHandler) GetSummary(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to summarize stocks", err)
		return
	}

	var query stockListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}
	filter, ok := query.filter()
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	summaries, err := h.service.SummaryByWarehouseFilter(c.Request.Context(), sc, filter)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to summarize stocks", err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}

func (h *StockHandler) GetStock(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch stock", err)
		return
	}
	id, err := middleware.UUIDParam(c, "id")
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Invalid stock ID", err)
		return
	}

	stock, err := h.service.GetStock(c.Request.Context(), sc, id)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch stock", err)
		return
	}

	c.JSON(http.StatusOK, stock)
}

func (h *StockHandler) FindStock(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch stock", err)
		return
	}
	warehouseID, err := middleware.UUIDParam(c, "id")
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Invalid warehouse ID", err)
		return
	}
	typeID, err := middleware.UUIDParam(c, "typeComponentId")
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Invalid component type ID", err)
		return
	}

	stock, err := h.service.FindStock(c.Request.Context(), warehouseID, typeID)
	if err == nil && !sc.Allows(stock.Warehouse()) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Stock not found"})
		return
	}
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch stock", err)
		return
	}

	c.JSON(http.StatusOK, stock)
}

func (h *StockHandler) UpdateReorderPoint(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to update stock", err)
		return
	}
	id, err := middleware.UUIDParam(c, "id")
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Invalid stock ID", err)
		return
	}

	var request struct {
		ReorderPoint *int `json:"reorder_point" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	stock, err := h.service.UpdateReorderPoint(c.Request.Context(), sc, id, *request.ReorderPoint)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to update stock", err)
		return
	}

	c.JSON(http.StatusOK, stock)
}
