package chatValidator

import (
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

const maxQuestionLength = 2000

func Ask() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Question string `json:"question"`
			CourseID *uint  `json:"course_id"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		reqData.Question = strings.TrimSpace(reqData.Question)
		if reqData.Question == "" {
			errors["question"] = "Question is required!"
		} else if len(reqData.Question) > maxQuestionLength {
			errors["question"] = "Question is too long!"
		}

		if reqData.CourseID != nil && *reqData.CourseID == 0 {
			errors["course_id"] = "Invalid Course ID!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedChatAsk", reqData)
		return c.Next()
	}
}
