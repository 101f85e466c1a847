package reviewControllers

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
)

// refreshCourseRating recomputes the cached average rating on the course
func refreshCourseRating(courseID uint) {
	var avgRating float64
	var total int64

	database.Database.Db.
		Table("reviews").
		Where("course_id = ? AND is_deleted = false", courseID).
		Select("COALESCE(AVG(rating),0)").
		Scan(&avgRating)

	database.Database.Db.Model(&models.Review{}).
		Where("course_id = ? AND is_deleted = false", courseID).
		Count(&total)

	database.Database.Db.Model(&courseModels.Course{}).
		Where("id = ?", courseID).
		Updates(map[string]interface{}{
			"rating":       avgRating,
			"rating_count": total,
		})
}

func CreateReview(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	// Get validated data
	reqData, ok := c.Locals("validatedReview").(*struct {
		Rating   int    `json:"rating"`
		CourseID uint   `json:"course_id"`
		Comment  string `json:"comment"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", reqData.CourseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	// Only enrolled students can review
	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userId, reqData.CourseID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Please enroll in this course first!", nil)
	}

	var review models.Review

	// Check if user already reviewed this course
	err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = false", userId, reqData.CourseID).
		First(&review).Error

	if err == nil {
		// Review exists, update it
		review.Rating = reqData.Rating
		review.Comment = reqData.Comment

		if err := database.Database.Db.Save(&review).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update review", nil)
		}
		refreshCourseRating(reqData.CourseID)
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Review updated successfully", review)
	}

	newReview := models.Review{
		UserID:   userId,
		CourseID: reqData.CourseID,
		Rating:   reqData.Rating,
		Comment:  reqData.Comment,
	}

	if err := database.Database.Db.Create(&newReview).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create review", nil)
	}

	refreshCourseRating(reqData.CourseID)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Review created successfully", newReview)
}

func GetReviews(c *fiber.Ctx) error {
	// Get validated data from middleware
	reqData := c.Locals("validatedReviewList").(*struct {
		Page     *int `json:"page"`
		Limit    *int `json:"limit"`
		CourseID uint `json:"course_id"`
	})

	offset := (*reqData.Page - 1) * (*reqData.Limit)

	type reviewRow struct {
		ID        uint   `json:"id"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
		UserName  string `json:"user_name"`
		CreatedAt string `json:"created_at"`
	}

	var reviews []reviewRow

	if err := database.Database.Db.
		Table("reviews").
		Select("reviews.id, reviews.rating, reviews.comment, users.name AS user_name, reviews.created_at").
		Joins("JOIN users ON users.id = reviews.user_id").
		Where("reviews.course_id = ? AND reviews.is_deleted = false", reqData.CourseID).
		Order("reviews.created_at DESC").
		Offset(offset).
		Limit(*reqData.Limit).
		Scan(&reviews).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch reviews", nil)
	}

	var total int64
	database.Database.Db.Model(&models.Review{}).
		Where("course_id = ? AND is_deleted = false", reqData.CourseID).
		Count(&total)

	var avgRating float64
	database.Database.Db.
		Table("reviews").
		Where("course_id = ? AND is_deleted = false", reqData.CourseID).
		Select("COALESCE(AVG(rating),0)").
		Scan(&avgRating)

	if reviews == nil {
		reviews = []reviewRow{}
	}

	response := map[string]interface{}{
		"reviews": reviews,
		"pagination": map[string]interface{}{
			"total": total,
			"page":  *reqData.Page,
			"limit": *reqData.Limit,
		},
		"average_rating": avgRating,
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Reviews list fetched successfully", response)
}
