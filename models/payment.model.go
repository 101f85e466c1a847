package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment records a course purchase attempt through the payment gateway
type Payment struct {
	gorm.Model
	UserID            uint       `json:"user_id" gorm:"index;not null"`
	CourseID          uint       `json:"course_id" gorm:"index;not null"`
	Amount            int64      `json:"amount"`   // smallest currency unit
	Currency          string     `json:"currency" gorm:"default:'usd'"`
	Provider          string     `json:"provider" gorm:"default:'STRIPE'"`
	ProviderSessionID string     `json:"provider_session_id" gorm:"index"`
	Status            string     `json:"status" gorm:"default:'PENDING'"` // PENDING, PAID, FAILED
	PaidAt            *time.Time `json:"paid_at"`
	IsDeleted         bool       `gorm:"default:false"`
}
