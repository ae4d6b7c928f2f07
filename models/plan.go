package models

import "time"

// Plan is a membership product. A nil DurationDays means the plan never lapses.
type Plan struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
	Name         string    `gorm:"not null" json:"name"`
	DurationDays *int      `json:"durationDays"`
	Price        int64     `gorm:"default:0" json:"price"`
}
