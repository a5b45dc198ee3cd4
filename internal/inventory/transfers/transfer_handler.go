package transfers

import (
	"net/http"
	"time"

	"evinventory/internal/middleware"
	"evinventory/pkg/models"
	"evinventory/pkg/roles"
	"evinventory/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TransferHandler struct {
	service *TransferService
	logger  *zap.Logger
}

func NewTransferHandler(service *TransferService, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{service: service, logger: logger}
}

func (h *TransferHandler) RegisterRoutes(router *gin.RouterGroup) {
	requester := security.Authorize(roles.ServiceCenterManager, roles.PartsCoordinatorServiceCenter)
	fulfiller := security.Authorize(roles.PartsCoordinatorCompany, roles.EMVStaff)

	router.GET("/stock-transfer-requests", h.GetTransfers)
	router.GET("/stock-transfer-requests/:id", h.GetTransfer)
	router.GET("/stock-transfer-requests/:id/history", h.GetTransferHistory)
	router.POST("/stock-transfer-requests", requester, h.CreateTransfer)
	router.PATCH("/stock-transfer-requests/:id/approve", fulfiller, h.ApproveTransfer)
	router.PATCH("/stock-transfer-requests/:id/ship", fulfiller, h.ShipTransfer)
	router.PATCH("/stock-transfer-requests/:id/receive", requester, h.ReceiveTransfer)
	router.PATCH("/stock-transfer-requests/:id/reject", fulfiller, h.RejectTransfer)
	router.PATCH("/stock-transfer-requests/:id/cancel", h.CancelTransfer)
}

func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	identity, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to create transfer request", err)
		return
	}

	var request CreateTransferRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	transfer, err := h.service.Create(c.Request.Context(), identity, sc, request)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to create transfer request", err)
		return
	}

	c.JSON(http.StatusCreated, transfer)
}

func (h *TransferHandler) ApproveTransfer(c *gin.Context) {
	identity, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to approve transfer request", err)
		return
	}
	id, err := middleware.UUIDParam(c, "id")
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Invalid transfer request ID", err)
		return
	}

	transfer, err := h.service.Approve(c.Request.Context(), identity, sc, id)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to approve transfer request", err)
		return
	}

	c.JSON(http.StatusOK, transfer)
}

func (h *TransferHandler) ShipTransfer(c *gin.Context) {
	identity, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to ship transfer request", err)
		return
	}
	id, err := middleware.UUIDParam(c, "id")
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Invalid transfer request ID", err)
		return
	}

	var request struct {
		EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return
		}
	}

	transfer, err := h.service.Ship(c.Request.Context(), identity, sc, id, request.EstimatedDeliveryDate)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to ship transfer request", err)
		return
	}

	c.JSON(http.StatusOK, transfer)
}

func (h *TransferHandler) ReceiveTransfer(c *gin.Context) {
	identity, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to receive transfer request", err)
		return
	}
	id, err := middleware.UUIDParam(c, "id")
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Invalid transfer request ID", err)
		return
	}

	transfer, err := h.service.Receive(c.Request.Context(), identity, sc, id)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to receive transfer request", err)
		return
	}

	c.JSON(http.StatusOK, transfer)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *TransferHandler) RejectTransfer(c *gin.Context) {
	identity, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to reject transfer request", err)
		return
	}
	id, err := middleware.UUIDParam(c, "id")
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Invalid transfer request ID", err)
		return
	}

	var request reasonRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	transfer, err := h.service.Reject(c.Request.Context(), identity, sc, id, request.Reason)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to reject transfer request", err)
		return
	}

	c.JSON(http.StatusOK, transfer)
}

func (h *TransferHandler) CancelTransfer(c *gin.Context) {
	identity, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to cancel transfer request", err)
		return
	}
	id, err := middleware.UUIDParam(c, "id")
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Invalid transfer request ID", err)
		return
	}

	var request reasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return
		}
	}

	transfer, err := h.service.Cancel(c.Request.Context(), identity, sc, id, request.Reason)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to cancel transfer request", err)
		return
	}

	c.JSON(http.StatusOK, transfer)
}

func (h *TransferHandler) GetTransfers(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch transfer requests", err)
		return
	}

	var query struct {
		Status string `form:"status"`
	}
	var pagination models.Pagination
	if c.ShouldBindQuery(&query) != nil || c.ShouldBindQuery(&pagination) != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}
	var status *models.TransferStatus
	if query.Status != "" {
		parsed, ok := models.NewTransferStatus(query.Status)
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		status = &parsed
	}

	page, err := h.service.List(c.Request.Context(), sc, status, pagination)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch transfer requests", err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *TransferHandler) GetTransfer(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch transfer request", err)
		return
	}
	id, err := middleware.UUIDParam(c, "id")
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Invalid transfer request ID", err)
		return
	}

	transfer, err := h.service.GetByID(c.Request.Context(), sc, id)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch transfer request", err)
		return
	}

	c.JSON(http.StatusOK, transfer)
}

func (h *TransferHandler) GetTransferHistory(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch transfer history", err)
		return
	}
	id, err := middleware.UUIDParam(c, "id")
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Invalid transfer request ID", err)
		return
	}

	logs, err := h.service.History(c.Request.Context(), sc, id)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch transfer history", err)
		return
	}

	c.JSON(http.StatusOK, logs)
}
