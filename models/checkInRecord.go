package models

import "time"

// AttendanceRecord is one physical visit. VisitDate is the check-in day
// (YYYY-MM-DD) in the gym's timezone and is part of the open-visit unique index.
type AttendanceRecord struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
	UserID     uint       `gorm:"index;not null" json:"userId"`
	VisitDate  string     `gorm:"size:10;index;not null" json:"visitDate"`
	CheckInAt  time.Time  `gorm:"not null" json:"checkInAt"`
	CheckOutAt *time.Time `json:"checkOutAt"`
	PaymentID  *uint      `json:"paymentId,omitempty"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// IsOpen reports whether the visit has not been checked out yet.
func (r AttendanceRecord) IsOpen() bool {
	return r.CheckOutAt == nil
}
