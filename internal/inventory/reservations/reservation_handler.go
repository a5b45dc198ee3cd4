package reservations

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

type ReservationHandler struct {
	service *ReservationService
	logger  *zap.Logger
}

func NewReservationHandler(service *ReservationService, logger *zap.Logger) *ReservationHandler {
	return &ReservationHandler{service: service, logger: logger}
}

func (h *ReservationHandler) RegisterRoutes(router *gin.RouterGroup) {
	workshop := security.Authorize(
		roles.ServiceCenterManager,
		roles.ServiceCenterStaff,
		roles.ServiceCenterTechnician,
		roles.PartsCoordinatorServiceCenter,
	)

	router.GET("/reservations", h.GetReservations)
	router.GET("/reservations/:id", h.GetReservation)
	router.POST("/reservations", workshop, h.Reserve)
	router.POST("/reservations/pickup", workshop, h.Pickup)
	router.POST("/reservations/:id/install", workshop, h.Install)
	router.POST("/reservations/:id/cancel", workshop, h.Cancel)
}

func (h *ReservationHandler) Reserve(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to reserve component", err)
		return
	}

	var request ReserveRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	reservations, err := h.service.Reserve(c.Request.Context(), sc, request)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to reserve component", err)
		return
	}

	c.JSON(http.StatusCreated, reservations)
}

func (h *ReservationHandler) Pickup(c *gin.Context) {
	identity, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to pick up components", err)
		return
	}

	var request struct {
		ReservationIDs []uuid.UUID `json:"reservation_ids" binding:"required"`
		TechnicianID   *uuid.UUID  `json:"technician_id"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	technicianID := identity.UserID
	if request.TechnicianID != nil {
		technicianID = *request.TechnicianID
	}

	picked, err := h.service.Pickup(c.Request.Context(), sc, request.ReservationIDs, technicianID)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to pick up components", err)
		return
	}

	c.JSON(http.StatusOK, picked)
}

func (h *ReservationHandler) Install(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to install component", err)
		return
	}
	id, err := middleware.UUIDParam(c, "id")
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Invalid reservation ID", err)
		return
	}

	reservation, err := h.service.Install(c.Request.Context(), sc, id)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to install component", err)
		return
	}

	c.JSON(http.StatusOK, reservation)
}

func (h *ReservationHandler) Cancel(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to cancel reservation", err)
		return
	}
	id, err := middleware.UUIDParam(c, "id")
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Invalid reservation ID", err)
		return
	}

	var request struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return
		}
	}

	reservation, err := h.service.Cancel(c.Request.Context(), sc, id, request.Reason)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Unable to cancel reservation", err)
		return
	}

	c.JSON(http.StatusOK, reservation)
}

type reservationListQuery struct {
	CaseLineID   string `form:"case_line_id"`
	RequestID    string `form:"request_id"`
	WarehouseID  string `form:"warehouse_id"`
	TechnicianID string `form:"technician_id"`
	Status       string `form:"status"`
}

func (q reservationListQuery) filter() (models.ReservationFilter, bool) {
	var filter models.ReservationFilter
	for _, p := range []struct {
		raw    string
		target **uuid.UUID
	}{
		{q.CaseLineID, &filter.CaseLineID},
		{q.RequestID, &filter.RequestID},
		{q.WarehouseID, &filter.WarehouseID},
		{q.TechnicianID, &filter.TechnicianID},
	} {
		if p.raw == "" {
			continue
		}
		id, err := uuid.Parse(p.raw)
		if err != nil {
			return filter, false
		}
		*p.target = &id
	}
	if q.Status != "" {
		status, ok := models.NewReservationStatus(q.Status)
		if !ok {
			return filter, false
		}
		filter.Status = &status
	}
	return filter, true
}

func (h *ReservationHandler) GetReservations(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch reservations", err)
		return
	}

	var query reservationListQuery
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

	page, err := h.service.GetComponentReservations(c.Request.Context(), sc, filter, pagination)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch reservations", err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *ReservationHandler) GetReservation(c *gin.Context) {
	_, sc, err := middleware.Caller(c)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch reservation", err)
		return
	}
	id, err := middleware.UUIDParam(c, "id")
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Invalid reservation ID", err)
		return
	}

	reservation, err := h.service.GetByID(c.Request.Context(), sc, id)
	if err != nil {
		middleware.RespondWithError(c, h.logger, "Failed to fetch reservation", err)
		return
	}

	c.JSON(http.StatusOK, reservation)
}
