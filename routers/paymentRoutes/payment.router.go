package paymentRoutes

import (
	paymentControllers "lms/controllers/payment"
	"lms/middleware"
	"lms/services/progress"
	paymentValidator "lms/validators/payment"

	"github.com/gofiber/fiber/v2"
)

func SetupPaymentRoutes(app *fiber.App, svc *progress.Service) {
	paymentGroup := app.Group("/payment")

	paymentGroup.Post("/checkout", paymentValidator.CreateCheckout(), middleware.JWTMiddleware, paymentControllers.CreateCheckout)
	paymentGroup.Post("/confirm", paymentValidator.ConfirmPayment(), middleware.JWTMiddleware, paymentControllers.ConfirmPayment(svc))
	paymentGroup.Get("/history", middleware.JWTMiddleware, paymentControllers.PaymentHistory)
}
