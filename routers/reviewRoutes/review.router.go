package reviewRoutes

import (
	reviewControllers "lms/controllers/review"
	"lms/middleware"
	reviewValidator "lms/validators/review"

	"github.com/gofiber/fiber/v2"
)

func SetupReviewRoutes(app *fiber.App) {
	reviewGroup := app.Group("/review")

	reviewGroup.Post("/create", reviewValidator.CreateReview(), middleware.JWTMiddleware, reviewControllers.CreateReview)
	reviewGroup.Get("/list", reviewValidator.ReviewList(), reviewControllers.GetReviews)
}
