package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	ProfileImage        string    `gorm:"default:''"`
	Name                string    `gorm:"default:''"`
	Email               string    `gorm:"unique;not null"`
	Mobile              string    `gorm:"default:''"`
	Role                string    `gorm:"default:'USER'"` // USER, INSTRUCTOR, ADMIN
	Password            string    `gorm:"not null"`
	Bio                 string    `gorm:"type:text;default:''"`
	IsMobileVerified    bool      `gorm:"default:false"`
	IsEmailVerified     bool      `gorm:"default:false"`
	LastLogin           time.Time `gorm:"default:NULL"`
	CoursesEnrolled     int       `gorm:"default:0"`
	CoursesCompleted    int       `gorm:"default:0"`
	CertificatesEarned  int       `gorm:"default:0"`
	Subscription        *UserSubscription `gorm:"foreignKey:UserID"`
	FailedLoginAttempts int        `gorm:"default:0"`
	LastFailedLogin     *time.Time `json:"last_failed_login"`
	IsBlocked           bool       `gorm:"default:false"`
	BlockedUntil        *time.Time `json:"blocked_until"`
	IsDeleted           bool       `gorm:"default:false"`
}

// UserSubscription is the single shape for subscription state. Optional fields
// are pointers; there is no alternate dict/object representation anywhere.
type UserSubscription struct {
	gorm.Model
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Plan      string     `gorm:"default:'FREE'" json:"plan"` // FREE, PRO, TEAM
	Status    string     `gorm:"default:'ACTIVE'" json:"status"`
	RenewsAt  *time.Time `json:"renews_at"`
	ExpiresAt *time.Time `json:"expires_at"`
	IsDeleted bool       `gorm:"default:false"`
}
