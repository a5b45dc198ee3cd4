package container

import (
	"database/sql"

	auditLogRepo "evinventory/internal/auditlog"
	"evinventory/internal/caselines"
	"evinventory/internal/inventory/adjustments"
	"evinventory/internal/inventory/alerts"
	"evinventory/internal/inventory/components"
	"evinventory/internal/inventory/effects"
	"evinventory/internal/inventory/history"
	"evinventory/internal/inventory/reservations"
	"evinventory/internal/inventory/stocks"
	"evinventory/internal/inventory/transfers"
	"evinventory/internal/notifications"
	"evinventory/internal/repository"
	"evinventory/pkg/auditlog"

	"go.uber.org/zap"
)

type Container struct {
	StockHandler       *stocks.StockHandler
	ComponentHandler   *components.ComponentHandler
	AdjustmentHandler  *adjustments.AdjustmentHandler
	ReservationHandler *reservations.ReservationHandler
	TransferHandler    *transfers.TransferHandler
	HistoryHandler     *history.HistoryHandler
}

func NewAppContainer(db *sql.DB, dispatcher notifications.Dispatcher, runner effects.Runner, logger *zap.Logger) *Container {
	repo := repository.NewRepository(db)
	auditLogRepository := auditLogRepo.NewRepository(repo)
	auditLog := auditlog.NewAuditLog(auditLogRepository, logger)

	stockRepo := stocks.NewRepository(repo)
	stockService := stocks.NewService(stockRepo, logger.Named("stocks"))
	componentRepo := components.NewRepository(repo)
	reservationRepo := reservations.NewRepository(repo)
	adjustmentRepo := adjustments.NewRepository(repo)
	transferRepo := transfers.NewRepository(repo)
	caseLines := caselines.NewRepository(repo)
	alertEngine := alerts.NewEngine(stockRepo, dispatcher, logger.Named("alerts"))

	adjustmentService := adjustments.NewService(
		repo, adjustmentRepo, stockService, componentRepo,
		alertEngine, dispatcher, auditLog, runner, logger.Named("adjustments"),
	)
	reservationService := reservations.NewService(
		repo, reservationRepo, stockService, componentRepo, caseLines,
		alertEngine, runner, logger.Named("reservations"),
	)
	transferService := transfers.NewService(
		repo, transferRepo, stockService, reservationRepo, componentRepo, caseLines,
		alertEngine, dispatcher, auditLog, auditLogRepository, runner, logger.Named("transfers"),
	)
	historyService := history.NewService(stockService, adjustmentRepo, reservationRepo, logger.Named("history"))

	return &Container{
		StockHandler:       stocks.NewStockHandler(stockService, logger),
		ComponentHandler:   components.NewComponentHandler(components.NewService(componentRepo, stockService), logger),
		AdjustmentHandler:  adjustments.NewAdjustmentHandler(adjustmentService, logger),
		ReservationHandler: reservations.NewReservationHandler(reservationService, logger),
		TransferHandler:    transfers.NewTransferHandler(transferService, logger),
		HistoryHandler:     history.NewHistoryHandler(historyService, logger),
	}
}
