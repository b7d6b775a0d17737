package order

import (
	"database/sql"

	"backoffice/internal/config"
	customerrepo "backoffice/internal/customer/repository"
	"backoffice/internal/infrastructure/mysql"
	inventoryrepo "backoffice/internal/inventory/repository"
	inventorysvc "backoffice/internal/inventory/service"
	invoicerepo "backoffice/internal/invoice/repository"
	invoicesvc "backoffice/internal/invoice/service"
	notificationrepo "backoffice/internal/notification/repository"
	notificationsvc "backoffice/internal/notification/service"
	"backoffice/internal/order/controller"
	orderrepo "backoffice/internal/order/repository"
	"backoffice/internal/order/service"
	"backoffice/internal/order/usecase"

	"go.uber.org/zap"
)

func NewModule(db *sql.DB, cfg *config.Config, logger *zap.Logger) *controller.OrderController {
	txDB := mysql.NewDB(db)

	orderRepo := orderrepo.NewMySQLOrderRepository(db)
	stockRepo := inventoryrepo.NewMySQLStockRepository(db)
	invoiceRepo := invoicerepo.NewMySQLInvoiceRepository(db)
	notificationRepo := notificationrepo.NewMySQLNotificationRepository(db)
	customerRepo := customerrepo.NewMySQLCustomerRepository(db)

	ledger := inventorysvc.NewLedger(stockRepo, logger)
	emitter := invoicesvc.NewEmitter(txDB, invoiceRepo, orderRepo, logger, cfg.Invoice.DueDays, cfg.Order.TransitionTxTimeout)
	dispatcher := notificationsvc.NewDispatcher(txDB, notificationRepo, customerRepo, logger)

	machine := service.NewStateMachine(
		txDB,
		orderRepo,
		ledger,
		emitter,
		dispatcher,
		logger,
		cfg.Order.TransitionTxTimeout,
	)

	uc := usecase.NewOrderUseCase(machine, orderRepo, logger, cfg.Order.MaxRetryAttempts)

	return controller.NewOrderController(uc, logger)
}
