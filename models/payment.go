package models

import "time"

type Payment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
	UserID      uint      `gorm:"index;not null" json:"userId"`
	PlanID      uint      `gorm:"not null" json:"planId"`
	Plan        Plan      `gorm:"foreignKey:PlanID" json:"plan"`
	Amount      int64     `gorm:"default:0" json:"amount"`
	Status      int       `gorm:"default:0" json:"status"`
	PaymentDate time.Time `gorm:"not null" json:"paymentDate"`
}
