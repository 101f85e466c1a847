package progress

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"lms/models"
	courseModels "lms/models/course"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeIssuer struct {
	calls int
}

func (f *fakeIssuer) Issue(userID, courseID, enrollmentID uint, finalScore, totalHours float64) (*courseModels.Certificate, error) {
	f.calls++
	cert := courseModels.Certificate{
		UserID:            userID,
		CourseID:          courseID,
		EnrollmentID:      enrollmentID,
		CertificateNumber: fmt.Sprintf("CERT-TEST%04d", f.calls),
		FinalScore:        finalScore,
		TotalHours:        totalHours,
	}
	return &cert, nil
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *fakeIssuer) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.UserSubscription{},
		&courseModels.Course{},
		&courseModels.Chapter{},
		&courseModels.Lesson{},
		&courseModels.Enrollment{},
		&courseModels.LessonProgress{},
		&courseModels.Certificate{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	issuer := &fakeIssuer{}
	svc := NewService(db, issuer)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, db, issuer
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := models.User{Name: "Asha", Email: fmt.Sprintf("%s@example.com", t.Name()), Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}

// seedCourse creates an ACTIVE course with the given chapter layout, every
// chapter and lesson published. Returns the lessons in learning order.
func seedCourse(t *testing.T, db *gorm.DB, sequential bool, lessonsPerChapter ...int) (*courseModels.Course, []courseModels.Lesson) {
	t.Helper()

	course := courseModels.Course{
		Title:              "Test Course",
		Status:             "ACTIVE",
		SequentialLearning: sequential,
		IsPublished:        true,
	}
	if err := db.Create(&course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}

	var lessons []courseModels.Lesson
	for ci, n := range lessonsPerChapter {
		chapter := courseModels.Chapter{
			CourseID:    course.ID,
			Title:       fmt.Sprintf("Chapter %d", ci+1),
			OrderIndex:  ci + 1,
			IsPublished: true,
		}
		if err := db.Create(&chapter).Error; err != nil {
			t.Fatalf("seed chapter: %v", err)
		}
		for li := 0; li < n; li++ {
			lesson := courseModels.Lesson{
				CourseID:    course.ID,
				ChapterID:   chapter.ID,
				Title:       fmt.Sprintf("Lesson %d.%d", ci+1, li+1),
				Duration:    600,
				OrderIndex:  li + 1,
				IsPublished: true,
			}
			if err := db.Create(&lesson).Error; err != nil {
				t.Fatalf("seed lesson: %v", err)
			}
			lessons = append(lessons, lesson)
		}
	}
	return &course, lessons
}

func lessonProgress(t *testing.T, db *gorm.DB, userID, lessonID uint) *courseModels.LessonProgress {
	t.Helper()
	var lp courseModels.LessonProgress
	if err := db.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&lp).Error; err != nil {
		t.Fatalf("load progress for lesson %d: %v", lessonID, err)
	}
	return &lp
}

func TestEnrollUnlocksFirstLessonOnly(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := seedUser(t, db)
	course, lessons := seedCourse(t, db, true, 2)

	enrollment, err := svc.Enroll(user.ID, course.ID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if enrollment.TotalLessons != 2 {
		t.Fatalf("total lessons = %d, want 2", enrollment.TotalLessons)
	}

	first := lessonProgress(t, db, user.ID, lessons[0].ID)
	if !first.IsUnlocked {
		t.Fatal("first lesson should be unlocked on enrollment")
	}

	if svc.IsLessonUnlocked(&lessons[1], user.ID) {
		t.Fatal("second lesson should stay locked until the first completes")
	}

	var reloaded models.User
	db.First(&reloaded, user.ID)
	if reloaded.CoursesEnrolled != 1 {
		t.Fatalf("courses enrolled = %d, want 1", reloaded.CoursesEnrolled)
	}
}

func TestEnrollTwiceFails(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := seedUser(t, db)
	course, _ := seedCourse(t, db, true, 1)

	if _, err := svc.Enroll(user.ID, course.ID); err != nil {
		t.Fatalf("first enroll: %v", err)
	}
	if _, err := svc.Enroll(user.ID, course.ID); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("second enroll err = %v, want ErrAlreadyEnrolled", err)
	}
}

func TestStartLessonRequiresUnlock(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := seedUser(t, db)
	course, lessons := seedCourse(t, db, true, 2)

	if _, err := svc.Enroll(user.ID, course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	if _, err := svc.StartLesson(user.ID, lessons[1].ID); !errors.Is(err, ErrLessonLocked) {
		t.Fatalf("locked lesson err = %v, want ErrLessonLocked", err)
	}
	if _, err := svc.StartLesson(user.ID, lessons[0].ID); err != nil {
		t.Fatalf("first lesson: %v", err)
	}
}

func TestStartLessonWithoutEnrollment(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := seedUser(t, db)
	_, lessons := seedCourse(t, db, true, 1)

	if _, err := svc.StartLesson(user.ID, lessons[0].ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestWatchPercentageNeverRegresses(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := seedUser(t, db)
	course, lessons := seedCourse(t, db, true, 1)

	if _, err := svc.Enroll(user.ID, course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	lp, err := svc.UpdateVideoProgress(user.ID, lessons[0].ID, 50, 300)
	if err != nil {
		t.Fatalf("first heartbeat: %v", err)
	}
	if lp.WatchPercentage != 50 {
		t.Fatalf("watch percentage = %v, want 50", lp.WatchPercentage)
	}

	// Rewinding moves the position but not the percentage.
	lp, err = svc.UpdateVideoProgress(user.ID, lessons[0].ID, 30, 100)
	if err != nil {
		t.Fatalf("second heartbeat: %v", err)
	}
	if lp.WatchPercentage != 50 {
		t.Fatalf("watch percentage after rewind = %v, want 50", lp.WatchPercentage)
	}
	if lp.CurrentPosition != 100 {
		t.Fatalf("current position = %v, want 100", lp.CurrentPosition)
	}
	if lp.TotalWatchTime != 2*WatchTimeQuantum {
		t.Fatalf("total watch time = %d, want %d", lp.TotalWatchTime, 2*WatchTimeQuantum)
	}
}

func TestCompletionThresholdUnlocksSuccessor(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := seedUser(t, db)
	course, lessons := seedCourse(t, db, true, 2)

	if _, err := svc.Enroll(user.ID, course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	lp, err := svc.UpdateVideoProgress(user.ID, lessons[0].ID, 96, 580)
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if !lp.IsCompleted || lp.CompletedAt == nil {
		t.Fatal("lesson should complete at 96%")
	}

	next := lessonProgress(t, db, user.ID, lessons[1].ID)
	if !next.IsUnlocked {
		t.Fatal("successor should unlock when the threshold is crossed")
	}
	if _, err := svc.StartLesson(user.ID, lessons[1].ID); err != nil {
		t.Fatalf("start successor: %v", err)
	}
}

func TestCompletionAggregationWeightsPartialLessons(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := seedUser(t, db)
	course, lessons := seedCourse(t, db, false, 3)

	if _, err := svc.Enroll(user.ID, course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	if _, err := svc.UpdateVideoProgress(user.ID, lessons[0].ID, 100, 600); err != nil {
		t.Fatalf("lesson 1: %v", err)
	}
	if _, err := svc.UpdateVideoProgress(user.ID, lessons[1].ID, 50, 300); err != nil {
		t.Fatalf("lesson 2: %v", err)
	}

	summary, err := svc.CalculateCourseCompletion(user.ID, course.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if summary.CompletionPercentage != 50.0 {
		t.Fatalf("completion = %v, want 50.0", summary.CompletionPercentage)
	}
	if summary.CompletedLessons != 1 {
		t.Fatalf("completed lessons = %d, want 1", summary.CompletedLessons)
	}
	if summary.IsCompleted {
		t.Fatal("course should not be complete at 50%")
	}

	var enrollment courseModels.Enrollment
	db.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&enrollment)
	if enrollment.CompletionPercentage != 50.0 {
		t.Fatalf("mirror completion = %v, want 50.0", enrollment.CompletionPercentage)
	}
	if enrollment.LessonsCompleted != 1 {
		t.Fatalf("mirror completed = %d, want 1", enrollment.LessonsCompleted)
	}
}

func TestCourseCompletionIssuesCertificateOnce(t *testing.T) {
	svc, db, issuer := newTestService(t)
	user := seedUser(t, db)
	course, lessons := seedCourse(t, db, false, 2)

	if _, err := svc.Enroll(user.ID, course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	for _, l := range lessons {
		if _, err := svc.UpdateVideoProgress(user.ID, l.ID, 100, 600); err != nil {
			t.Fatalf("lesson %d: %v", l.ID, err)
		}
	}

	var enrollment courseModels.Enrollment
	db.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&enrollment)
	if !enrollment.IsCompleted || enrollment.CompletedAt == nil {
		t.Fatal("enrollment should be completed")
	}
	if enrollment.Status != "COMPLETED" {
		t.Fatalf("status = %q, want COMPLETED", enrollment.Status)
	}
	firstCompletedAt := *enrollment.CompletedAt

	if issuer.calls != 1 {
		t.Fatalf("issuer calls = %d, want 1", issuer.calls)
	}

	// Recomputation after completion is a no-op for the one-time effects.
	for i := 0; i < 3; i++ {
		if _, err := svc.CalculateCourseCompletion(user.ID, course.ID); err != nil {
			t.Fatalf("recompute %d: %v", i, err)
		}
	}

	db.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&enrollment)
	if !enrollment.CompletedAt.Equal(firstCompletedAt) {
		t.Fatal("completed_at should be sticky across recomputation")
	}
	if issuer.calls != 1 {
		t.Fatalf("issuer calls after recompute = %d, want 1", issuer.calls)
	}

	var reloaded models.User
	db.First(&reloaded, user.ID)
	if reloaded.CoursesCompleted != 1 || reloaded.CertificatesEarned != 1 {
		t.Fatalf("user counters = (%d, %d), want (1, 1)", reloaded.CoursesCompleted, reloaded.CertificatesEarned)
	}
}

func TestRecomputeFollowsUnpublishedLessons(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := seedUser(t, db)
	course, lessons := seedCourse(t, db, false, 2)

	if _, err := svc.Enroll(user.ID, course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := svc.UpdateVideoProgress(user.ID, lessons[0].ID, 100, 600); err != nil {
		t.Fatalf("lesson 1: %v", err)
	}

	// Unpublishing the untouched lesson shrinks the denominator to 1.
	db.Model(&courseModels.Lesson{}).Where("id = ?", lessons[1].ID).Update("is_published", false)

	summary, err := svc.CalculateCourseCompletion(user.ID, course.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if summary.TotalLessons != 1 {
		t.Fatalf("total lessons = %d, want 1", summary.TotalLessons)
	}
	if !summary.IsCompleted {
		t.Fatal("course should be complete once the only published lesson is done")
	}
}

func TestFreeNavigationSkipsLocking(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := seedUser(t, db)
	course, lessons := seedCourse(t, db, false, 3)

	if _, err := svc.Enroll(user.ID, course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	// Any lesson is startable in any order.
	if _, err := svc.StartLesson(user.ID, lessons[2].ID); err != nil {
		t.Fatalf("start last lesson: %v", err)
	}
}

func TestResolveCurrentLesson(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := seedUser(t, db)
	course, lessons := seedCourse(t, db, true, 3)

	if _, err := svc.Enroll(user.ID, course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := svc.UpdateVideoProgress(user.ID, lessons[0].ID, 100, 600); err != nil {
		t.Fatalf("lesson 1: %v", err)
	}

	// A stale pointer at an unpublished lesson falls back to the first
	// incomplete one.
	db.Model(&courseModels.Lesson{}).Where("id = ?", lessons[1].ID).Update("is_published", false)

	stale := lessons[1].ID
	current, err := svc.ResolveCurrentLesson(user.ID, course.ID, &stale)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if current == nil || current.ID != lessons[2].ID {
		t.Fatalf("current lesson = %+v, want lesson %d", current, lessons[2].ID)
	}
}

func TestSequentialWalkThroughTwoChapters(t *testing.T) {
	svc, db, issuer := newTestService(t)
	user := seedUser(t, db)
	course, lessons := seedCourse(t, db, true, 2, 2)

	if _, err := svc.Enroll(user.ID, course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	for i, lesson := range lessons {
		// Everything past the frontier is locked.
		for _, later := range lessons[i+1:] {
			if _, err := svc.StartLesson(user.ID, later.ID); !errors.Is(err, ErrLessonLocked) {
				t.Fatalf("lesson %d should be locked while %d is incomplete, got %v", later.ID, lesson.ID, err)
			}
		}

		if _, err := svc.StartLesson(user.ID, lesson.ID); err != nil {
			t.Fatalf("start lesson %d: %v", lesson.ID, err)
		}
		if _, err := svc.UpdateVideoProgress(user.ID, lesson.ID, 100, 600); err != nil {
			t.Fatalf("complete lesson %d: %v", lesson.ID, err)
		}
	}

	var enrollment courseModels.Enrollment
	db.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&enrollment)
	if !enrollment.IsCompleted {
		t.Fatal("enrollment should complete after the last lesson")
	}
	if enrollment.CompletionPercentage != 100 {
		t.Fatalf("completion = %v, want 100", enrollment.CompletionPercentage)
	}
	if issuer.calls != 1 {
		t.Fatalf("issuer calls = %d, want exactly 1", issuer.calls)
	}
}

func TestCourseCreatePersistsFreeNavigation(t *testing.T) {
	_, db, _ := newTestService(t)

	course := courseModels.Course{Title: "Open Course", Status: "ACTIVE", SequentialLearning: false}
	if err := db.Create(&course).Error; err != nil {
		t.Fatalf("create course: %v", err)
	}

	var loaded courseModels.Course
	if err := db.First(&loaded, course.ID).Error; err != nil {
		t.Fatalf("reload course: %v", err)
	}
	if loaded.SequentialLearning {
		t.Fatal("free navigation setting was not persisted on create")
	}
}

func TestDraftChapterHidesItsLessons(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := seedUser(t, db)
	course, lessons := seedCourse(t, db, false, 1, 1)

	if _, err := svc.Enroll(user.ID, course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := svc.UpdateVideoProgress(user.ID, lessons[0].ID, 100, 600); err != nil {
		t.Fatalf("lesson 1: %v", err)
	}

	// Unpublishing the chapter hides its lessons even when addressed by id.
	db.Model(&courseModels.Chapter{}).Where("id = ?", lessons[1].ChapterID).Update("is_published", false)

	if _, err := svc.StartLesson(user.ID, lessons[1].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("start lesson in draft chapter: got %v, want ErrNotFound", err)
	}
	if _, err := svc.UpdateVideoProgress(user.ID, lessons[1].ID, 100, 600); !errors.Is(err, ErrNotFound) {
		t.Fatalf("progress on lesson in draft chapter: got %v, want ErrNotFound", err)
	}
}

func TestNewLessonReopensCompletedEnrollment(t *testing.T) {
	svc, db, issuer := newTestService(t)
	user := seedUser(t, db)
	course, lessons := seedCourse(t, db, false, 1)

	if _, err := svc.Enroll(user.ID, course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := svc.UpdateVideoProgress(user.ID, lessons[0].ID, 100, 600); err != nil {
		t.Fatalf("complete lesson: %v", err)
	}

	var enrollment courseModels.Enrollment
	db.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&enrollment)
	if enrollment.Status != "COMPLETED" || enrollment.CompletedAt == nil {
		t.Fatalf("enrollment not completed: status=%s completed_at=%v", enrollment.Status, enrollment.CompletedAt)
	}

	extra := courseModels.Lesson{
		CourseID:    course.ID,
		ChapterID:   lessons[0].ChapterID,
		Title:       "Lesson 1.2",
		Duration:    600,
		OrderIndex:  2,
		IsPublished: true,
	}
	if err := db.Create(&extra).Error; err != nil {
		t.Fatalf("add lesson: %v", err)
	}

	summary, err := svc.CalculateCourseCompletion(user.ID, course.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if summary.IsCompleted {
		t.Fatal("course should reopen when new content is published")
	}

	db.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&enrollment)
	if enrollment.Status != "ACTIVE" {
		t.Fatalf("status = %s, want ACTIVE after reopening", enrollment.Status)
	}
	if enrollment.IsCompleted {
		t.Fatal("is_completed should revert with the status")
	}
	if enrollment.CompletedAt == nil {
		t.Fatal("completed_at must stay set so completion side effects never repeat")
	}
	if issuer.calls != 1 {
		t.Fatalf("issuer calls = %d, want exactly 1", issuer.calls)
	}
}
