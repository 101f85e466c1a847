package utils

import (
	"log"

	"lms/database"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services/progress"

	"github.com/robfig/cron/v3"
)

// InitializeProgressScheduler sets up the nightly progress reconciliation job
func InitializeProgressScheduler(svc *progress.Service) {
	log.Println("[PROGRESS-SCHEDULER] Initializing progress scheduler...")

	c := cron.New()

	// Run daily at 2 AM to reconcile enrollment progress mirrors
	c.AddFunc("0 2 * * *", func() {
		log.Println("[PROGRESS-SCHEDULER] Running daily progress reconciliation...")
		ReconcileEnrollmentProgress(svc)
	})

	c.Start()
	log.Println("[PROGRESS-SCHEDULER] Progress scheduler started - runs daily at 2 AM")
}

// ReconcileEnrollmentProgress recomputes completion for every active
// enrollment. Content published or unpublished since the learner's last
// heartbeat is folded into the mirror here; enrollments that cross 100% go
// through the same one-time completion path as a live heartbeat, emails
// included.
func ReconcileEnrollmentProgress(svc *progress.Service) {
	db := database.Database.Db

	var enrollments []courseModels.Enrollment
	if err := db.Where("status = ? AND is_deleted = ?", "ACTIVE", false).
		Find(&enrollments).Error; err != nil {
		log.Printf("[PROGRESS-SCHEDULER] Error fetching active enrollments: %v", err)
		return
	}

	log.Printf("[PROGRESS-SCHEDULER] Reconciling %d active enrollments", len(enrollments))

	completed := 0
	for _, enrollment := range enrollments {
		wasCompleted := enrollment.CompletedAt != nil

		summary, err := svc.CalculateCourseCompletion(enrollment.UserID, enrollment.CourseID)
		if err != nil {
			log.Printf("[PROGRESS-SCHEDULER] Error reconciling enrollment %d: %v", enrollment.ID, err)
			continue
		}

		if summary.IsCompleted && !wasCompleted {
			completed++
		}
	}

	if completed > 0 {
		log.Printf("[PROGRESS-SCHEDULER] %d enrollments completed during reconciliation", completed)
	}
	log.Println("[PROGRESS-SCHEDULER] Reconciliation finished")
}

// CompletionEmails sends the course completion and certificate emails when an
// enrollment first completes. It satisfies the progress service's notifier.
type CompletionEmails struct{}

func (CompletionEmails) CourseCompleted(userID, courseID, enrollmentID uint) {
	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		log.Printf("[PROGRESS] Error fetching user %d for completion email: %v", userID, err)
		return
	}

	var course courseModels.Course
	if err := db.Where("id = ?", courseID).First(&course).Error; err != nil {
		log.Printf("[PROGRESS] Error fetching course %d for completion email: %v", courseID, err)
		return
	}

	go SendCourseCompletionEmail(user.Email, user.Name, course.Title)

	var cert courseModels.Certificate
	if err := db.Where("enrollment_id = ? AND is_deleted = ?", enrollmentID, false).
		First(&cert).Error; err == nil {
		go SendCertificateEmail(user.Email, user.Name, course.Title, cert.CertificateNumber)
	}

	log.Printf("[PROGRESS] Sent completion emails for enrollment %d to %s", enrollmentID, user.Email)
}
