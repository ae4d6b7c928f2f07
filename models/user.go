package models

import (
	"time"
)

type User struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time          `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time          `gorm:"autoUpdateTime" json:"updatedAt"`
	Name              string             `gorm:"default:New Member" json:"name"`
	Email             string             `gorm:"unique" json:"email"`
	Password          string             `json:"-"`
	Role              int                `gorm:"default:0" json:"role"`
	Status            int                `gorm:"default:1" json:"status"`
	MembershipEndDate *time.Time         `gorm:"type:date" json:"membershipEndDate,omitempty"`
	Payments          []Payment          `gorm:"foreignKey:UserID" json:"payments,omitempty"`
	CheckIns          []AttendanceRecord `gorm:"foreignKey:UserID" json:"checkins,omitempty"`
}
