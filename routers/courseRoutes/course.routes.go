package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	"lms/services/progress"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all learner-facing course routes
func SetupCourseRoutes(app *fiber.App, svc *progress.Service) {
	courseGroup := app.Group("/course")

	// Catalog
	courseGroup.Get("/list", middleware.JWTMiddleware, validators.CourseList(), controllers.GetAllCourses)
	courseGroup.Get("/:id", middleware.JWTMiddleware, validators.CourseID(), controllers.GetCourseDetails)

	// Enrollment
	courseGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.EnrollCourse(), controllers.EnrollInCourse(svc))

	// Learn page and per-course progress
	courseGroup.Get("/:id/learn", middleware.JWTMiddleware, validators.CourseID(), controllers.GetLearnPage(svc))
	courseGroup.Get("/:id/progress", middleware.JWTMiddleware, validators.CourseID(), controllers.GetUserProgress(svc))

	// Lesson playback and quizzes
	lessonGroup := app.Group("/lesson")
	lessonGroup.Post("/:lesson_id/start", middleware.JWTMiddleware, validators.LessonID(), controllers.StartLesson(svc))
	lessonGroup.Patch("/:lesson_id/progress", middleware.JWTMiddleware, validators.VideoProgress(), controllers.UpdateVideoProgress(svc))
	lessonGroup.Get("/:lesson_id/quiz", middleware.JWTMiddleware, validators.LessonID(), controllers.GetQuizQuestions)
	lessonGroup.Post("/:lesson_id/quiz/submit", middleware.JWTMiddleware, validators.SubmitQuiz(), controllers.SubmitQuizAnswer)
	lessonGroup.Get("/:lesson_id/quiz/attempts", middleware.JWTMiddleware, validators.LessonID(), controllers.GetQuizAttempts)

	// Enrollments and certificates for the logged-in user
	userGroup := app.Group("/user")
	userGroup.Get("/enrollments", middleware.JWTMiddleware, controllers.GetEnrollments)
	userGroup.Get("/certificates", middleware.JWTMiddleware, controllers.GetUserCertificates)

	// Public certificate verification, no auth on purpose
	app.Get("/certificate/verify/:number", controllers.VerifyCertificate)
}
