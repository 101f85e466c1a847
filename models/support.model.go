package models

import "gorm.io/gorm"

type SupportTicket struct {
	gorm.Model
	UserID    uint   `json:"user_id"`
	Title     string `json:"title"`
	Subject   string `json:"subject"`
	Message   []byte `json:"message" gorm:"type:jsonb"` // JSON array of {sender, text, time}
	Status    string `json:"status" gorm:"default:'OPEN'"`
	Priority  string `json:"priority" gorm:"default:'MEDIUM'"`
	Category  string `json:"category" gorm:"default:'GENERAL'"`
	IsDeleted bool   `json:"is_deleted" gorm:"default:false"`
}
