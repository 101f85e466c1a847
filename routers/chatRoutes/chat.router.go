package chatRoutes

import (
	"lms/ai"
	chatControllers "lms/controllers/chat"
	"lms/middleware"
	chatValidator "lms/validators/chat"

	"github.com/gofiber/fiber/v2"
)

func SetupChatRoutes(app *fiber.App, svc *ai.Service) {
	chatGroup := app.Group("/chat")

	chatGroup.Post("/ask", chatValidator.Ask(), middleware.JWTMiddleware, chatControllers.Ask(svc))
	chatGroup.Get("/history", middleware.JWTMiddleware, chatControllers.History(svc))
}
