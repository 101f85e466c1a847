package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCourseRoutes sets up all course authoring and reporting routes
func SetupAdminCourseRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin/course")

	// Course CRUD
	adminGroup.Post("/create", middleware.JWTMiddleware, validators.CreateCourseAdmin(), controllers.AdminCreateCourse)
	adminGroup.Get("/list", middleware.JWTMiddleware, validators.CourseList(), controllers.AdminGetAllCourses)
	adminGroup.Get("/:id", middleware.JWTMiddleware, validators.CourseID(), controllers.AdminGetCourseDetails)
	adminGroup.Put("/:id", middleware.JWTMiddleware, validators.UpdateCourseAdmin(), controllers.AdminUpdateCourse)
	adminGroup.Delete("/:id", middleware.JWTMiddleware, validators.CourseID(), controllers.AdminDeleteCourse)
	adminGroup.Post("/:id/publish", middleware.JWTMiddleware, validators.CourseID(), controllers.AdminPublishCourse)

	// Chapter management
	adminGroup.Post("/:id/chapter", middleware.JWTMiddleware, validators.CreateChapter(), controllers.AdminCreateChapter)
	adminGroup.Get("/:id/chapters", middleware.JWTMiddleware, validators.CourseID(), controllers.AdminListChapters)
	adminGroup.Put("/:id/chapter/:chapter_id", middleware.JWTMiddleware, validators.UpdateChapter(), controllers.AdminUpdateChapter)
	adminGroup.Delete("/:id/chapter/:chapter_id", middleware.JWTMiddleware, validators.ChapterID(), controllers.AdminDeleteChapter)

	// Lesson management
	adminGroup.Post("/:id/chapter/:chapter_id/lesson", middleware.JWTMiddleware, validators.CreateLesson(), controllers.AdminCreateLesson)
	adminGroup.Get("/:id/chapter/:chapter_id/lessons", middleware.JWTMiddleware, validators.ChapterID(), controllers.AdminGetChapterLessons)
	adminGroup.Put("/:id/lesson/:lesson_id", middleware.JWTMiddleware, validators.UpdateLesson(), controllers.AdminUpdateLesson)
	adminGroup.Delete("/:id/lesson/:lesson_id", middleware.JWTMiddleware, validators.CourseLessonID(), controllers.AdminDeleteLesson)
	adminGroup.Post("/:id/lesson/:lesson_id/publish", middleware.JWTMiddleware, validators.CourseLessonID(), controllers.AdminPublishLesson)

	// Quiz authoring
	adminGroup.Post("/:id/lesson/:lesson_id/quiz", middleware.JWTMiddleware, validators.AddQuizQuestion(), controllers.AdminAddQuizQuestion)

	quizGroup := app.Group("/admin/quiz")
	quizGroup.Delete("/:question_id", middleware.JWTMiddleware, validators.QuizQuestionID(), controllers.AdminDeleteQuizQuestion)

	// Enrollment and progress reporting
	adminGroup.Get("/:id/enrollments", middleware.JWTMiddleware, validators.GetCourseEnrollments(), controllers.AdminGetCourseEnrollments)
	adminGroup.Get("/:id/completed", middleware.JWTMiddleware, validators.CourseID(), controllers.AdminGetCompletedStudents)

	studentGroup := app.Group("/admin/student")
	studentGroup.Get("/:user_id/progress", middleware.JWTMiddleware, validators.GetStudentProgress(), controllers.AdminGetStudentProgress)

	// Certificates and dashboard
	certGroup := app.Group("/admin/certificates")
	certGroup.Get("/issued", middleware.JWTMiddleware, validators.CertificateQuery(), controllers.AdminGetIssuedCertificates)

	dashGroup := app.Group("/admin/dashboard")
	dashGroup.Get("/stats", middleware.JWTMiddleware, controllers.AdminDashboardStats)
}
