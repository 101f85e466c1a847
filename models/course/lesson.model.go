package course

import (
	"time"

	"gorm.io/gorm"
)

// Lesson represents a video lesson within a chapter
type Lesson struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	ChapterID   uint   `json:"chapter_id" gorm:"index;not null"`
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url"`
	Duration    int    `json:"duration" gorm:"default:0"`    // video length in seconds
	OrderIndex  int    `json:"order_index" gorm:"default:0"` // Order within chapter
	IsPreview   bool   `json:"is_preview" gorm:"default:false"` // viewable without enrollment
	IsPublished bool   `json:"is_published" gorm:"default:false"`
	IsDeleted   bool   `gorm:"default:false"`
}

// LessonProgress tracks one user's state on one lesson. The pair
// (user_id, lesson_id) is unique; records are created lazily on enrollment
// (first lesson) or on the first progress update for a lesson.
type LessonProgress struct {
	gorm.Model
	UserID   uint `json:"user_id" gorm:"index;not null;uniqueIndex:idx_user_lesson"`
	CourseID uint `json:"course_id" gorm:"index;not null"`
	LessonID uint `json:"lesson_id" gorm:"index;not null;uniqueIndex:idx_user_lesson"`

	// Video progress. WatchPercentage only ever moves up; CurrentPosition
	// follows the player and may rewind freely.
	WatchPercentage float64 `json:"watch_percentage" gorm:"default:0"`
	CurrentPosition float64 `json:"current_position" gorm:"default:0"` // seconds
	TotalWatchTime  int64   `json:"total_watch_time" gorm:"default:0"` // cumulative seconds

	// Quiz progress (best attempt)
	BestQuizScore int  `json:"best_quiz_score" gorm:"default:0"`
	QuizPassed    bool `json:"quiz_passed" gorm:"default:false"`
	QuizAttempts  int  `json:"quiz_attempts" gorm:"default:0"`

	IsUnlocked   bool       `json:"is_unlocked" gorm:"default:false"`
	IsCompleted  bool       `json:"is_completed" gorm:"default:false"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	LastAccessed time.Time  `json:"last_accessed"`
	IsDeleted    bool       `gorm:"default:false"`
}
