package authValidator

import (
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// UpdateProfile validator middleware
func UpdateProfile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Name         *string `json:"name"`
			Bio          *string `json:"bio"`
			Mobile       *string `json:"mobile"`
			ProfileImage *string `json:"profile_image"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Name != nil && len(strings.TrimSpace(*reqData.Name)) < 3 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Name must be at least 3 characters long!", nil)
		}
		if reqData.Bio != nil && len(*reqData.Bio) > 1000 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Bio must not exceed 1000 characters!", nil)
		}
		if reqData.Mobile != nil && !isValidMobile(strings.TrimSpace(*reqData.Mobile)) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid mobile number! Must be 10 digits.", nil)
		}

		c.Locals("validatedProfile", reqData)
		return c.Next()
	}
}
