package models

import "gorm.io/gorm"

// ChatMessage is one turn of an AI study-assistant conversation
type ChatMessage struct {
	gorm.Model
	UserID    uint   `json:"user_id" gorm:"index;not null"`
	CourseID  *uint  `json:"course_id" gorm:"index"` // nil for general questions
	Role      string `json:"role"`                   // user, assistant
	Content   string `json:"content" gorm:"type:text"`
	FromCache bool   `json:"from_cache" gorm:"default:false"`
	IsDeleted bool   `gorm:"default:false"`
}
