package controllers

import (
	"encoding/json"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
)

const quizPassScore = 70

// SubmitQuizAnswer evaluates a quiz submission for a lesson and records the attempt
func SubmitQuizAnswer(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	lessonID := c.Locals("lessonID").(int)

	reqData, ok := c.Locals("validatedQuizSubmit").(*struct {
		Answers []struct {
			QuestionID uint `json:"question_id"`
			OptionID   uint `json:"option_id"`
		} `json:"answers"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var lesson courseModels.Lesson
	if err := database.Database.Db.Where("id = ? AND is_deleted = ? AND is_published = ?", lessonID, false, true).First(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	// Check enrollment
	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ? AND status <> ?", userID, lesson.CourseID, false, "CANCELLED").First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Please enroll in this course first!", nil)
	}

	var questions []courseModels.QuizQuestion
	if err := database.Database.Db.Where("lesson_id = ? AND is_deleted = ?", lessonID, false).Find(&questions).Error; err != nil || len(questions) == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No quiz found for this lesson!", nil)
	}

	selected := make(map[uint]uint, len(reqData.Answers))
	for _, a := range reqData.Answers {
		selected[a.QuestionID] = a.OptionID
	}

	// Score against the correct option of each question
	correct := 0
	for _, q := range questions {
		optionID, answered := selected[q.ID]
		if !answered {
			continue
		}
		var option courseModels.QuizOption
		if err := database.Database.Db.Where("id = ? AND question_id = ? AND is_deleted = ?", optionID, q.ID, false).First(&option).Error; err != nil {
			continue
		}
		if option.IsCorrect {
			correct++
		}
	}

	score := correct * 100 / len(questions)
	passed := score >= quizPassScore

	var attemptCount int64
	database.Database.Db.Model(&courseModels.QuizAttempt{}).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Count(&attemptCount)

	selectedJSON, _ := json.Marshal(selected)

	attempt := courseModels.QuizAttempt{
		UserID:          userID,
		LessonID:        uint(lessonID),
		SelectedOptions: string(selectedJSON),
		Score:           score,
		MaxScore:        100,
		Passed:          passed,
		AttemptNumber:   int(attemptCount) + 1,
	}
	if err := database.Database.Db.Create(&attempt).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record quiz attempt!", nil)
	}

	// Keep the best score on the lesson progress record
	var lp courseModels.LessonProgress
	if err := database.Database.Db.Where("user_id = ? AND lesson_id = ? AND is_deleted = ?", userID, lessonID, false).First(&lp).Error; err == nil {
		updates := map[string]interface{}{
			"quiz_attempts": lp.QuizAttempts + 1,
		}
		if score > lp.BestQuizScore {
			updates["best_quiz_score"] = score
		}
		if passed && !lp.QuizPassed {
			updates["quiz_passed"] = true
		}
		database.Database.Db.Model(&courseModels.LessonProgress{}).Where("id = ?", lp.ID).Updates(updates)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz submitted successfully!", fiber.Map{
		"score":          score,
		"max_score":      100,
		"correct":        correct,
		"total":          len(questions),
		"passed":         passed,
		"attempt_number": attempt.AttemptNumber,
	})
}

// GetQuizQuestions lists a lesson's quiz without the correct-answer flags
func GetQuizQuestions(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	lessonID := c.Locals("lessonID").(int)

	var lesson courseModels.Lesson
	if err := database.Database.Db.Where("id = ? AND is_deleted = ? AND is_published = ?", lessonID, false, true).First(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ? AND status <> ?", userID, lesson.CourseID, false, "CANCELLED").First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Please enroll in this course first!", nil)
	}

	var questions []courseModels.QuizQuestion
	database.Database.Db.Where("lesson_id = ? AND is_deleted = ?", lessonID, false).Order("order_index ASC").Find(&questions)

	type quizOption struct {
		ID   uint   `json:"id"`
		Text string `json:"text"`
	}
	type quizQuestion struct {
		ID       uint         `json:"id"`
		Question string       `json:"question"`
		Options  []quizOption `json:"options"`
	}

	result := make([]quizQuestion, 0, len(questions))
	for _, q := range questions {
		var options []courseModels.QuizOption
		database.Database.Db.Where("question_id = ? AND is_deleted = ?", q.ID, false).Order("order_index ASC").Find(&options)

		qq := quizQuestion{ID: q.ID, Question: q.Question}
		for _, o := range options {
			qq.Options = append(qq.Options, quizOption{ID: o.ID, Text: o.OptionText})
		}
		result = append(result, qq)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz fetched successfully!", result)
}

// GetQuizAttempts lists the user's attempts for a lesson, newest first
func GetQuizAttempts(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	lessonID := c.Locals("lessonID").(int)

	var attempts []courseModels.QuizAttempt
	if err := database.Database.Db.Where("user_id = ? AND lesson_id = ? AND is_deleted = ?", userID, lessonID, false).
		Order("created_at DESC").Find(&attempts).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch quiz attempts!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz attempts fetched successfully!", attempts)
}
