package progress

import (
	"errors"
	"log"
	"math"
	"time"

	"lms/models"
	courseModels "lms/models/course"

	"gorm.io/gorm"
)

const (
	// CompletionThreshold is the watch percentage at which a lesson counts as
	// completed and its successor unlocks.
	CompletionThreshold = 95.0

	// WatchTimeQuantum is the fixed number of seconds added to a lesson's
	// total watch time per progress heartbeat. Retried heartbeats over-count;
	// the aggregation self-heals everything else but not this counter.
	WatchTimeQuantum = 15
)

// CertificateIssuer issues a certificate when a course completes for the
// first time. Implementations must be idempotent per enrollment.
type CertificateIssuer interface {
	Issue(userID, courseID, enrollmentID uint, finalScore, totalHours float64) (*courseModels.Certificate, error)
}

// CompletionNotifier is told about the first transition of an enrollment to
// completed, after the certificate is issued.
type CompletionNotifier interface {
	CourseCompleted(userID, courseID, enrollmentID uint)
}

// CompletionSummary is the result of one course completion recomputation.
type CompletionSummary struct {
	TotalLessons         int     `json:"total_lessons"`
	CompletedLessons     int     `json:"completed_lessons"`
	CompletionPercentage float64 `json:"completion_percentage"`
	IsCompleted          bool    `json:"is_completed"`
	WatchTimeSeconds     int64   `json:"watch_time_seconds"`
}

// Service implements lesson unlocking, video progress updates and the course
// completion aggregation that keeps the enrollment progress mirror in sync.
type Service struct {
	db       *gorm.DB
	issuer   CertificateIssuer
	notifier CompletionNotifier
	now      func() time.Time
}

// NewService creates a progress service on top of the given database. The
// issuer may be nil, in which case completion never issues certificates.
func NewService(db *gorm.DB, issuer CertificateIssuer) *Service {
	return &Service{db: db, issuer: issuer, now: time.Now}
}

// SetNotifier installs the completion notifier. A nil notifier disables
// completion notifications.
func (s *Service) SetNotifier(n CompletionNotifier) {
	s.notifier = n
}

// PublishedLessons returns the course's published lessons in learning order:
// published chapters by order index, then each chapter's published lessons by
// order index, flattened. Draft and deleted content never appears here.
func (s *Service) PublishedLessons(courseID uint) ([]courseModels.Lesson, error) {
	var chapters []courseModels.Chapter
	if err := s.db.Where("course_id = ? AND is_published = ? AND is_deleted = ?", courseID, true, false).
		Order("order_index asc").Find(&chapters).Error; err != nil {
		return nil, err
	}

	var lessons []courseModels.Lesson
	for _, chapter := range chapters {
		var chapterLessons []courseModels.Lesson
		if err := s.db.Where("chapter_id = ? AND is_published = ? AND is_deleted = ?", chapter.ID, true, false).
			Order("order_index asc").Find(&chapterLessons).Error; err != nil {
			return nil, err
		}
		lessons = append(lessons, chapterLessons...)
	}
	return lessons, nil
}

// IsLessonUnlocked reports whether the user may access the lesson. Free
// navigation courses and anonymous previews are always unlocked; otherwise a
// lesson unlocks when its predecessor is completed. A lesson with no published
// predecessor (first lesson, or predecessor deleted) is unlocked so content
// edits can never strand a learner.
func (s *Service) IsLessonUnlocked(lesson *courseModels.Lesson, userID uint) bool {
	if userID == 0 {
		return true
	}

	var c courseModels.Course
	if err := s.db.Where("id = ? AND is_deleted = ?", lesson.CourseID, false).First(&c).Error; err != nil {
		return true
	}
	if !c.SequentialLearning {
		return true
	}

	prev := s.precedingLesson(lesson)
	if prev == nil {
		return true
	}

	var lp courseModels.LessonProgress
	if err := s.db.Where("user_id = ? AND lesson_id = ? AND is_deleted = ?", userID, prev.ID, false).
		First(&lp).Error; err != nil {
		return false
	}
	return lp.IsCompleted
}

// precedingLesson finds the published lesson immediately before the given one:
// the highest-ordered earlier lesson in the same chapter, or the last
// published lesson of the nearest previous published chapter. Returns nil when
// nothing precedes it.
func (s *Service) precedingLesson(lesson *courseModels.Lesson) *courseModels.Lesson {
	var prev courseModels.Lesson
	err := s.db.Where("chapter_id = ? AND order_index < ? AND is_published = ? AND is_deleted = ?",
		lesson.ChapterID, lesson.OrderIndex, true, false).
		Order("order_index desc").First(&prev).Error
	if err == nil {
		return &prev
	}

	var chapter courseModels.Chapter
	if err := s.db.Where("id = ? AND is_deleted = ?", lesson.ChapterID, false).First(&chapter).Error; err != nil {
		return nil
	}

	var prevChapters []courseModels.Chapter
	s.db.Where("course_id = ? AND order_index < ? AND is_published = ? AND is_deleted = ?",
		chapter.CourseID, chapter.OrderIndex, true, false).
		Order("order_index desc").Find(&prevChapters)
	for _, ch := range prevChapters {
		if err := s.db.Where("chapter_id = ? AND is_published = ? AND is_deleted = ?", ch.ID, true, false).
			Order("order_index desc").First(&prev).Error; err == nil {
			return &prev
		}
	}
	return nil
}

// nextLesson finds the published lesson immediately after the given one, or
// nil when it is the last.
func (s *Service) nextLesson(lesson *courseModels.Lesson) *courseModels.Lesson {
	var next courseModels.Lesson
	err := s.db.Where("chapter_id = ? AND order_index > ? AND is_published = ? AND is_deleted = ?",
		lesson.ChapterID, lesson.OrderIndex, true, false).
		Order("order_index asc").First(&next).Error
	if err == nil {
		return &next
	}

	var chapter courseModels.Chapter
	if err := s.db.Where("id = ? AND is_deleted = ?", lesson.ChapterID, false).First(&chapter).Error; err != nil {
		return nil
	}

	var nextChapters []courseModels.Chapter
	s.db.Where("course_id = ? AND order_index > ? AND is_published = ? AND is_deleted = ?",
		chapter.CourseID, chapter.OrderIndex, true, false).
		Order("order_index asc").Find(&nextChapters)
	for _, ch := range nextChapters {
		if err := s.db.Where("chapter_id = ? AND is_published = ? AND is_deleted = ?", ch.ID, true, false).
			Order("order_index asc").First(&next).Error; err == nil {
			return &next
		}
	}
	return nil
}

// Enroll creates an enrollment with a zeroed progress mirror and unlocks the
// first published lesson.
func (s *Service) Enroll(userID, courseID uint) (*courseModels.Enrollment, error) {
	var c courseModels.Course
	if err := s.db.Where("id = ? AND is_deleted = ? AND status = ?", courseID, false, "ACTIVE").
		First(&c).Error; err != nil {
		return nil, ErrNotFound
	}

	var existing courseModels.Enrollment
	if err := s.db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
		First(&existing).Error; err == nil {
		return nil, ErrAlreadyEnrolled
	}

	lessons, err := s.PublishedLessons(courseID)
	if err != nil {
		return nil, err
	}

	enrollment := courseModels.Enrollment{
		UserID:       userID,
		CourseID:     courseID,
		Status:       "ACTIVE",
		TotalLessons: len(lessons),
		LastAccessed: s.now(),
	}
	if err := s.db.Create(&enrollment).Error; err != nil {
		return nil, err
	}

	// First lesson is always unlocked on enrollment.
	if len(lessons) > 0 {
		if _, err := s.fetchOrCreateProgress(userID, &lessons[0], true); err != nil {
			return nil, err
		}
	}

	s.db.Model(&models.User{}).Where("id = ?", userID).
		Update("courses_enrolled", gorm.Expr("courses_enrolled + 1"))

	return &enrollment, nil
}

// StartLesson authorizes access to a lesson and lazily creates its progress
// record. Returns ErrLessonLocked when sequential learning blocks it.
func (s *Service) StartLesson(userID, lessonID uint) (*courseModels.LessonProgress, error) {
	lesson, err := s.publishedLesson(lessonID)
	if err != nil {
		return nil, err
	}
	if _, err := s.activeEnrollment(userID, lesson.CourseID); err != nil {
		return nil, err
	}
	if !s.IsLessonUnlocked(lesson, userID) {
		return nil, ErrLessonLocked
	}

	lp, err := s.fetchOrCreateProgress(userID, lesson, true)
	if err != nil {
		return nil, err
	}

	now := s.now()
	s.db.Model(&courseModels.LessonProgress{}).Where("id = ?", lp.ID).Update("last_accessed", now)
	s.db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, lesson.CourseID, false).
		Updates(map[string]interface{}{"current_lesson_id": lesson.ID, "last_accessed": now})

	return s.reloadProgress(lp.ID)
}

// UpdateVideoProgress applies one playback heartbeat: the watch percentage is
// accepted only upward, the position follows the player unconditionally, and
// the watch time grows by a fixed quantum. Crossing the completion threshold
// completes the lesson once and unlocks its successor. The enrollment mirror
// is recomputed synchronously before returning.
func (s *Service) UpdateVideoProgress(userID, lessonID uint, watchPercentage, currentPosition float64) (*courseModels.LessonProgress, error) {
	lesson, err := s.publishedLesson(lessonID)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.activeEnrollment(userID, lesson.CourseID)
	if err != nil {
		return nil, err
	}

	if !s.IsLessonUnlocked(lesson, userID) {
		return nil, ErrLessonLocked
	}

	lp, err := s.fetchOrCreateProgress(userID, lesson, true)
	if err != nil {
		return nil, err
	}

	pct := math.Max(0, math.Min(100, watchPercentage))
	now := s.now()

	// Position and watch time are unconditional; the increment is done in SQL
	// so concurrent heartbeats cannot lose ticks.
	if err := s.db.Model(&courseModels.LessonProgress{}).Where("id = ?", lp.ID).
		Updates(map[string]interface{}{
			"current_position": currentPosition,
			"total_watch_time": gorm.Expr("total_watch_time + ?", WatchTimeQuantum),
			"last_accessed":    now,
		}).Error; err != nil {
		return nil, err
	}

	// Watch percentage never regresses.
	if err := s.db.Model(&courseModels.LessonProgress{}).
		Where("id = ? AND watch_percentage < ?", lp.ID, pct).
		Update("watch_percentage", pct).Error; err != nil {
		return nil, err
	}

	if pct >= CompletionThreshold {
		// Guarded one-shot transition: only the heartbeat that actually flips
		// the flag unlocks the successor.
		res := s.db.Model(&courseModels.LessonProgress{}).
			Where("id = ? AND is_completed = ?", lp.ID, false).
			Updates(map[string]interface{}{"is_completed": true, "completed_at": now})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			if next := s.nextLesson(lesson); next != nil {
				if _, err := s.fetchOrCreateProgress(userID, next, true); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := s.db.Model(&courseModels.Enrollment{}).Where("id = ?", enrollment.ID).
		Updates(map[string]interface{}{"current_lesson_id": lesson.ID, "last_accessed": now}).Error; err != nil {
		return nil, err
	}

	if _, err := s.CalculateCourseCompletion(userID, lesson.CourseID); err != nil {
		return nil, err
	}

	return s.reloadProgress(lp.ID)
}

// CalculateCourseCompletion recomputes the user's completion state for a
// course from scratch and writes it onto the enrollment progress mirror.
//
// The percentage is a weighted average of per-lesson watch percentages over
// all currently published lessons, not a completed/total ratio: a lesson
// watched to 40% contributes 0.4 lessons of credit. Lessons without a progress
// record still count in the denominator. Recomputation is idempotent; the
// first transition to 100% stamps the enrollment, bumps the user's completion
// counters and issues the certificate exactly once.
func (s *Service) CalculateCourseCompletion(userID, courseID uint) (*CompletionSummary, error) {
	lessons, err := s.PublishedLessons(courseID)
	if err != nil {
		return nil, err
	}

	summary := &CompletionSummary{TotalLessons: len(lessons)}

	if len(lessons) > 0 {
		ids := make([]uint, len(lessons))
		for i, l := range lessons {
			ids[i] = l.ID
		}

		var records []courseModels.LessonProgress
		if err := s.db.Where("user_id = ? AND lesson_id IN ? AND is_deleted = ?", userID, ids, false).
			Find(&records).Error; err != nil {
			return nil, err
		}
		byLesson := make(map[uint]*courseModels.LessonProgress, len(records))
		for i := range records {
			byLesson[records[i].LessonID] = &records[i]
		}

		var pctSum float64
		for _, l := range lessons {
			lp, ok := byLesson[l.ID]
			if !ok {
				continue // contributes 0, still in the denominator
			}
			pctSum += lp.WatchPercentage
			summary.WatchTimeSeconds += lp.TotalWatchTime
			if lp.IsCompleted {
				summary.CompletedLessons++
			}
		}

		summary.CompletionPercentage = math.Round(pctSum/float64(len(lessons))*10) / 10
		summary.IsCompleted = summary.CompletionPercentage >= 100
	}

	var enrollment courseModels.Enrollment
	if err := s.db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
		First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Nothing to mirror onto; preview or stale call.
			return summary, nil
		}
		return nil, err
	}

	updates := map[string]interface{}{
		"total_lessons":         summary.TotalLessons,
		"lessons_completed":     summary.CompletedLessons,
		"completion_percentage": summary.CompletionPercentage,
		"is_completed":          summary.IsCompleted,
		"total_watch_time":      summary.WatchTimeSeconds / 60,
	}

	// CompletedAt is sticky: it guards the one-time completion side effects
	// against repeated recomputation.
	firstCompletion := summary.IsCompleted && enrollment.CompletedAt == nil
	if firstCompletion {
		now := s.now()
		updates["completed_at"] = now
		updates["status"] = "COMPLETED"
	} else if !summary.IsCompleted && enrollment.Status == "COMPLETED" {
		// Newly published content reopened the course. CompletedAt stays set
		// so the one-time side effects never repeat.
		updates["status"] = "ACTIVE"
	}

	if err := s.db.Model(&enrollment).Updates(updates).Error; err != nil {
		return nil, err
	}

	if firstCompletion {
		s.db.Model(&models.User{}).Where("id = ?", userID).
			Updates(map[string]interface{}{
				"courses_completed":   gorm.Expr("courses_completed + 1"),
				"certificates_earned": gorm.Expr("certificates_earned + 1"),
			})

		if s.issuer != nil {
			finalScore := s.finalScore(userID, lessons)
			totalHours := math.Round(float64(summary.WatchTimeSeconds)/3600*10) / 10
			if _, err := s.issuer.Issue(userID, courseID, enrollment.ID, finalScore, totalHours); err != nil {
				log.Printf("[PROGRESS] Certificate issuance failed for user %d course %d: %v", userID, courseID, err)
			}
		}

		if s.notifier != nil {
			s.notifier.CourseCompleted(userID, courseID, enrollment.ID)
		}
	}

	return summary, nil
}

// ResolveCurrentLesson picks the lesson the learn page should open: the
// mirror's current lesson when it is still published, otherwise the first
// incomplete lesson, otherwise the last one. Content edits therefore never
// surface as an error to the learner.
func (s *Service) ResolveCurrentLesson(userID, courseID uint, currentLessonID *uint) (*courseModels.Lesson, error) {
	lessons, err := s.PublishedLessons(courseID)
	if err != nil {
		return nil, err
	}
	if len(lessons) == 0 {
		return nil, nil
	}

	if currentLessonID != nil {
		for i := range lessons {
			if lessons[i].ID == *currentLessonID {
				return &lessons[i], nil
			}
		}
	}

	ids := make([]uint, len(lessons))
	for i, l := range lessons {
		ids[i] = l.ID
	}
	var records []courseModels.LessonProgress
	s.db.Where("user_id = ? AND lesson_id IN ? AND is_deleted = ?", userID, ids, false).Find(&records)
	completed := make(map[uint]bool, len(records))
	for _, lp := range records {
		if lp.IsCompleted {
			completed[lp.LessonID] = true
		}
	}

	for i := range lessons {
		if !completed[lessons[i].ID] {
			return &lessons[i], nil
		}
	}
	return &lessons[len(lessons)-1], nil
}

// ProgressByLesson returns the user's progress records for a course keyed by
// lesson id, for learn page annotation.
func (s *Service) ProgressByLesson(userID, courseID uint) (map[uint]courseModels.LessonProgress, error) {
	var records []courseModels.LessonProgress
	if err := s.db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
		Find(&records).Error; err != nil {
		return nil, err
	}
	byLesson := make(map[uint]courseModels.LessonProgress, len(records))
	for _, lp := range records {
		byLesson[lp.LessonID] = lp
	}
	return byLesson, nil
}

// finalScore is the average best quiz score across lessons with at least one
// attempt, or 100 for courses without quizzes.
func (s *Service) finalScore(userID uint, lessons []courseModels.Lesson) float64 {
	if len(lessons) == 0 {
		return 100
	}
	ids := make([]uint, len(lessons))
	for i, l := range lessons {
		ids[i] = l.ID
	}

	var records []courseModels.LessonProgress
	s.db.Where("user_id = ? AND lesson_id IN ? AND quiz_attempts > 0 AND is_deleted = ?", userID, ids, false).
		Find(&records)
	if len(records) == 0 {
		return 100
	}

	var sum float64
	for _, lp := range records {
		sum += float64(lp.BestQuizScore)
	}
	return math.Round(sum/float64(len(records))*10) / 10
}

// publishedLesson resolves a lesson the learner is allowed to see. The owning
// chapter must be published too, so drafts stay invisible even by direct id.
func (s *Service) publishedLesson(lessonID uint) (*courseModels.Lesson, error) {
	var lesson courseModels.Lesson
	if err := s.db.Where("id = ? AND is_published = ? AND is_deleted = ?", lessonID, true, false).
		First(&lesson).Error; err != nil {
		return nil, ErrNotFound
	}
	var chapter courseModels.Chapter
	if err := s.db.Where("id = ? AND is_published = ? AND is_deleted = ?", lesson.ChapterID, true, false).
		First(&chapter).Error; err != nil {
		return nil, ErrNotFound
	}
	return &lesson, nil
}

func (s *Service) activeEnrollment(userID, courseID uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	if err := s.db.Where("user_id = ? AND course_id = ? AND is_deleted = ? AND status <> ?",
		userID, courseID, false, "CANCELLED").First(&enrollment).Error; err != nil {
		return nil, ErrForbidden
	}
	return &enrollment, nil
}

// fetchOrCreateProgress returns the user's progress record for the lesson,
// creating it when absent. An existing locked record is unlocked when asked.
func (s *Service) fetchOrCreateProgress(userID uint, lesson *courseModels.Lesson, unlocked bool) (*courseModels.LessonProgress, error) {
	var lp courseModels.LessonProgress
	err := s.db.Where("user_id = ? AND lesson_id = ? AND is_deleted = ?", userID, lesson.ID, false).
		First(&lp).Error
	if err == nil {
		if unlocked && !lp.IsUnlocked {
			if err := s.db.Model(&lp).Update("is_unlocked", true).Error; err != nil {
				return nil, err
			}
			lp.IsUnlocked = true
		}
		return &lp, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := s.now()
	lp = courseModels.LessonProgress{
		UserID:       userID,
		CourseID:     lesson.CourseID,
		LessonID:     lesson.ID,
		IsUnlocked:   unlocked,
		StartedAt:    now,
		LastAccessed: now,
	}
	if err := s.db.Create(&lp).Error; err != nil {
		// A concurrent call may have created it; the unique index on
		// (user_id, lesson_id) makes the re-fetch safe.
		var existing courseModels.LessonProgress
		if ferr := s.db.Where("user_id = ? AND lesson_id = ? AND is_deleted = ?", userID, lesson.ID, false).
			First(&existing).Error; ferr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &lp, nil
}

func (s *Service) reloadProgress(id uint) (*courseModels.LessonProgress, error) {
	var lp courseModels.LessonProgress
	if err := s.db.Where("id = ?", id).First(&lp).Error; err != nil {
		return nil, err
	}
	return &lp, nil
}
