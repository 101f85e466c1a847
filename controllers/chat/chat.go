package chatControllers

import (
	"errors"

	"lms/ai"
	"lms/database"
	"lms/middleware"
	"lms/models"

	"github.com/gofiber/fiber/v2"
)

// Ask sends a question to the course assistant
func Ask(svc *ai.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userId, ok := c.Locals("userId").(uint)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		var user models.User
		if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		}

		reqData, ok := c.Locals("validatedChatAsk").(*struct {
			Question string `json:"question"`
			CourseID *uint  `json:"course_id"`
		})
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
		}

		reply, fromCache, err := svc.Answer(userId, reqData.CourseID, reqData.Question)
		if err != nil {
			if errors.Is(err, ai.ErrRateLimited) {
				return middleware.JsonResponse(c, fiber.StatusTooManyRequests, false, "Chat limit reached, please try again later!", nil)
			}
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Assistant is unavailable right now!", nil)
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, "Answer generated successfully!", fiber.Map{
			"reply":      reply,
			"from_cache": fromCache,
		})
	}
}

// History returns the user's recent chat messages
func History(svc *ai.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userId, ok := c.Locals("userId").(uint)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		limit := c.QueryInt("limit", 50)
		if limit < 1 || limit > 200 {
			limit = 50
		}

		messages, err := svc.History(userId, limit)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch chat history!", nil)
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, "Chat history fetched successfully!", messages)
	}
}
