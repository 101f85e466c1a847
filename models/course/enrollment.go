package course

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment tracks a user's enrollment in a course. The progress fields are a
// denormalized mirror recomputed by the progress service after every relevant
// update; consumers read them and never re-aggregate themselves.
type Enrollment struct {
	gorm.Model
	UserID   uint   `json:"user_id" gorm:"index;not null"`
	CourseID uint   `json:"course_id" gorm:"index;not null"`
	Status   string `json:"status" gorm:"default:'ACTIVE'"` // ACTIVE, COMPLETED, CANCELLED

	TotalLessons         int        `json:"total_lessons" gorm:"default:0"`
	LessonsCompleted     int        `json:"lessons_completed" gorm:"default:0"`
	CompletionPercentage float64    `json:"completion_percentage" gorm:"default:0"` // 0–100, one decimal
	IsCompleted          bool       `json:"is_completed" gorm:"default:false"`
	CurrentLessonID      *uint      `json:"current_lesson_id"`
	CompletedAt          *time.Time `json:"completed_at"`
	TotalWatchTime       int64      `json:"total_watch_time" gorm:"default:0"` // minutes
	LastAccessed         time.Time  `json:"last_accessed"`

	IsDeleted bool `gorm:"default:false"`
}
