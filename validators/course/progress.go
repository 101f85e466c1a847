package courseValidator

import (
	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// LessonID validates the lesson id URL param
func LessonID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lessonID, ok := parseIDParam(c, "lesson_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Lesson ID!", nil)
		}

		c.Locals("lessonID", lessonID)
		return c.Next()
	}
}

// VideoProgress validates a playback heartbeat request
func VideoProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lessonID, ok := parseIDParam(c, "lesson_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Lesson ID!", nil)
		}

		reqData := new(struct {
			WatchPercentage float64 `json:"watch_percentage"`
			CurrentPosition float64 `json:"current_position"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.WatchPercentage < 0 || reqData.WatchPercentage > 100 {
			errors["watch_percentage"] = "Watch percentage must be between 0 and 100!"
		}

		if reqData.CurrentPosition < 0 {
			errors["current_position"] = "Current position cannot be negative!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("lessonID", lessonID)
		c.Locals("validatedVideoProgress", reqData)
		return c.Next()
	}
}

// SubmitQuiz validates a quiz submission request
func SubmitQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lessonID, ok := parseIDParam(c, "lesson_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Lesson ID!", nil)
		}

		reqData := new(struct {
			Answers []struct {
				QuestionID uint `json:"question_id"`
				OptionID   uint `json:"option_id"`
			} `json:"answers"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if len(reqData.Answers) == 0 {
			errors["answers"] = "At least one answer is required!"
		}
		for _, a := range reqData.Answers {
			if a.QuestionID == 0 || a.OptionID == 0 {
				errors["answers"] = "Each answer needs a question_id and option_id!"
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("lessonID", lessonID)
		c.Locals("validatedQuizSubmit", reqData)
		return c.Next()
	}
}
