package course

import "gorm.io/gorm"

// Course represents a learning course
type Course struct {
	gorm.Model
	Title              string  `json:"title"`
	Description        string  `json:"description" gorm:"type:text"`
	Author             string  `json:"author"`
	Duration           int64   `json:"duration" gorm:"default:0"` // duration in hours
	Status             string  `json:"status" gorm:"default:'DRAFT'"` // DRAFT, ACTIVE, INACTIVE
	Rating             float64 `json:"rating" gorm:"default:0"`
	RatingCount        int     `json:"rating_count" gorm:"default:0"`
	ThumbnailURL       string  `json:"thumbnail_url"`
	Price              int64   `json:"price" gorm:"default:0"` // smallest currency unit; 0 = free
	Currency           string  `json:"currency" gorm:"default:'usd'"`
	SequentialLearning bool    `json:"sequential_learning"` // lessons unlock in order; default set on create
	IsPublished        bool    `json:"is_published" gorm:"default:false"`
	IsDeleted          bool    `gorm:"default:false"`
}
