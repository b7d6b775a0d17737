package server

import (
	"database/sql"
	"net/http"

	"backoffice/internal/middleware"
	notificationctrl "backoffice/internal/notification/controller"
	orderctrl "backoffice/internal/order/controller"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func NewRouter(
	orderController *orderctrl.OrderController,
	notificationController *notificationctrl.NotificationController,
	db *sql.DB,
	jwtSecret string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := db.PingContext(req.Context()); err != nil {
			logger.Error("health check failed", zap.Error(err))
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(jwtSecret))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderController.Create)
			r.Get("/", orderController.List)
			r.Get("/{orderId}", orderController.Get)
			r.Delete("/{orderId}", orderController.Delete)
			r.Post("/{orderId}/approve", orderController.Approve)
			r.Post("/{orderId}/reject", orderController.Reject)
			r.Post("/{orderId}/cancel", orderController.Cancel)
			r.Post("/{orderId}/appeal", orderController.Appeal)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationController.ListStaff)
			r.Post("/{notificationId}/reply", notificationController.Reply)
			r.Post("/{notificationId}/read", notificationController.MarkRead)
		})

		r.Get("/customers/{customerId}/notifications", notificationController.ListCustomer)
	})

	return r
}
