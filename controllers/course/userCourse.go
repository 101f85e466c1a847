package controllers

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services/progress"

	"github.com/gofiber/fiber/v2"
)

// GetCourseDetails gets course details with chapters for users
func GetCourseDetails(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	// Get published chapters
	var chapters []courseModels.Chapter
	database.Database.Db.Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).Order("order_index asc").Find(&chapters)

	// Check if user is enrolled
	var enrollment courseModels.Enrollment
	isEnrolled := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error == nil

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course details fetched successfully!", fiber.Map{
		"course":      course,
		"chapters":    chapters,
		"is_enrolled": isEnrolled,
		"enrollment":  enrollment,
	})
}

// LessonWithProgress is a lesson annotated with the caller's unlock and
// progress state for the learn page
type LessonWithProgress struct {
	courseModels.Lesson
	IsUnlocked      bool    `json:"is_unlocked"`
	IsCompleted     bool    `json:"is_completed"`
	WatchPercentage float64 `json:"watch_percentage"`
	CurrentPosition float64 `json:"current_position"`
}

// GetLearnPage returns the full learn page for an enrolled user: chapters and
// lessons annotated with unlock/progress state, the refreshed enrollment
// mirror and the lesson to resume at. Opening the page recomputes the mirror
// so content edits made since the last visit are reflected.
func GetLearnPage(svc *progress.Service) fiber.Handler {
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

		var course courseModels.Course
		if err := database.Database.Db.Where("id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).First(&course).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		}

		// Check enrollment
		var enrollment courseModels.Enrollment
		if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Please enroll in this course first!", nil)
		}

		// Self-heal the mirror against content changes since the last visit
		if _, err := svc.CalculateCourseCompletion(userID, uint(courseID)); err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to compute progress!", nil)
		}

		progressByLesson, err := svc.ProgressByLesson(userID, uint(courseID))
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
		}

		var chapters []courseModels.Chapter
		database.Database.Db.Where("course_id = ? AND is_deleted = ? AND is_published = ?", courseID, false, true).Order("order_index asc").Find(&chapters)

		type ChapterWithLessons struct {
			courseModels.Chapter
			Lessons []LessonWithProgress `json:"lessons"`
		}

		result := make([]ChapterWithLessons, len(chapters))
		for i, chapter := range chapters {
			result[i] = ChapterWithLessons{Chapter: chapter}

			var lessons []courseModels.Lesson
			database.Database.Db.Where("chapter_id = ? AND is_deleted = ? AND is_published = ?", chapter.ID, false, true).Order("order_index asc").Find(&lessons)

			result[i].Lessons = make([]LessonWithProgress, len(lessons))
			for j := range lessons {
				annotated := LessonWithProgress{
					Lesson:     lessons[j],
					IsUnlocked: svc.IsLessonUnlocked(&lessons[j], userID),
				}
				if lp, ok := progressByLesson[lessons[j].ID]; ok {
					annotated.IsCompleted = lp.IsCompleted
					annotated.WatchPercentage = lp.WatchPercentage
					annotated.CurrentPosition = lp.CurrentPosition
				}
				result[i].Lessons[j] = annotated
			}
		}

		// Reload the refreshed mirror
		database.Database.Db.Where("id = ?", enrollment.ID).First(&enrollment)

		current, err := svc.ResolveCurrentLesson(userID, uint(courseID), enrollment.CurrentLessonID)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to resolve current lesson!", nil)
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, "Learn page fetched successfully!", fiber.Map{
			"course":         course,
			"chapters":       result,
			"enrollment":     enrollment,
			"current_lesson": current,
		})
	}
}
