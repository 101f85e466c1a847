package controllers

import (
	"errors"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services/progress"

	"github.com/gofiber/fiber/v2"
)

// progressError maps engine errors onto the response envelope
func progressError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, progress.ErrNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	case errors.Is(err, progress.ErrForbidden):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Please enroll in this course first!", nil)
	case errors.Is(err, progress.ErrLessonLocked):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Complete the previous lesson to unlock this one!", nil)
	default:
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update progress!", nil)
	}
}

// StartLesson opens a lesson for an enrolled user, creating its progress
// record when missing
func StartLesson(svc *progress.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		var user models.User
		if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		}

		lessonID := c.Locals("lessonID").(int)

		lp, err := svc.StartLesson(userID, uint(lessonID))
		if err != nil {
			return progressError(c, err)
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson started successfully!", lp)
	}
}

// UpdateVideoProgress applies one playback heartbeat to a lesson
func UpdateVideoProgress(svc *progress.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		var user models.User
		if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		}

		lessonID := c.Locals("lessonID").(int)

		reqData, ok := c.Locals("validatedVideoProgress").(*struct {
			WatchPercentage float64 `json:"watch_percentage"`
			CurrentPosition float64 `json:"current_position"`
		})
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
		}

		lp, err := svc.UpdateVideoProgress(userID, uint(lessonID), reqData.WatchPercentage, reqData.CurrentPosition)
		if err != nil {
			return progressError(c, err)
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated successfully!", lp)
	}
}

// GetUserProgress gets the user's progress in a course
func GetUserProgress(svc *progress.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		var user models.User
		if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		}

		courseID := c.Locals("courseID").(int)

		// Check enrollment
		var enrollment courseModels.Enrollment
		if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Please enroll in this course first!", nil)
		}

		// Recompute so the numbers reflect the current published content
		summary, err := svc.CalculateCourseCompletion(userID, uint(courseID))
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to compute progress!", nil)
		}

		progressByLesson, err := svc.ProgressByLesson(userID, uint(courseID))
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
		}

		completedIDs := make([]uint, 0, len(progressByLesson))
		for lessonID, lp := range progressByLesson {
			if lp.IsCompleted {
				completedIDs = append(completedIDs, lessonID)
			}
		}

		database.Database.Db.Where("id = ?", enrollment.ID).First(&enrollment)

		return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", fiber.Map{
			"enrollment":    enrollment,
			"summary":       summary,
			"completed_ids": completedIDs,
		})
	}
}
