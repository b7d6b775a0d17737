package notification

import (
	"database/sql"

	customerrepo "backoffice/internal/customer/repository"
	"backoffice/internal/infrastructure/mysql"
	"backoffice/internal/notification/controller"
	"backoffice/internal/notification/repository"
	"backoffice/internal/notification/service"

	"go.uber.org/zap"
)

func NewModule(db *sql.DB, logger *zap.Logger) *controller.NotificationController {
	notificationRepo := repository.NewMySQLNotificationRepository(db)
	customerRepo := customerrepo.NewMySQLCustomerRepository(db)

	dispatcher := service.NewDispatcher(mysql.NewDB(db), notificationRepo, customerRepo, logger)

	return controller.NewNotificationController(dispatcher, logger)
}
