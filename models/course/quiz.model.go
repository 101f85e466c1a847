package course

import "gorm.io/gorm"

// QuizQuestion represents a multiple choice question attached to a lesson
type QuizQuestion struct {
	gorm.Model
	LessonID   uint   `json:"lesson_id" gorm:"index;not null"`
	Question   string `json:"question" gorm:"type:text"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
	IsDeleted  bool   `gorm:"default:false"`
}

// QuizOption represents an option for a quiz question
type QuizOption struct {
	gorm.Model
	QuestionID uint   `json:"question_id" gorm:"index;not null"`
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	OrderIndex int    `json:"order_index" gorm:"default:0"`
	IsDeleted  bool   `gorm:"default:false"`
}

// QuizAttempt represents a student's attempt at a lesson quiz
type QuizAttempt struct {
	gorm.Model
	UserID          uint   `json:"user_id" gorm:"index;not null"`
	LessonID        uint   `json:"lesson_id" gorm:"index;not null"`
	SelectedOptions string `json:"selected_options"` // JSON array of selected option IDs
	Score           int    `json:"score"`            // Score achieved (percent)
	MaxScore        int    `json:"max_score"`
	Passed          bool   `json:"passed" gorm:"default:false"`
	AttemptNumber   int    `json:"attempt_number" gorm:"default:1"`
	IsDeleted       bool   `gorm:"default:false"`
}
