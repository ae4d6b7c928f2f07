package dto

import "time"

type ScanRequest struct {
	Token string `json:"token" form:"token" validate:"required,max=1024"`
}

// ScanResult is the data part of a scan reply.
type ScanResult struct {
	Outcome         string     `json:"outcome"`
	Reason          string     `json:"reason,omitempty"`
	RecordID        uint       `json:"recordId,omitempty"`
	MemberID        uint       `json:"memberId,omitempty"`
	MemberName      string     `json:"memberName,omitempty"`
	PlanName        string     `json:"planName,omitempty"`
	ExpiresOn       string     `json:"expiresOn,omitempty"`
	CheckInAt       *time.Time `json:"checkInAt,omitempty"`
	CheckOutAt      *time.Time `json:"checkOutAt,omitempty"`
	DurationMinutes int        `json:"durationMinutes,omitempty"`
}

type AttendanceQuery struct {
	Date string `form:"date" validate:"omitempty,visitdate"`
}

type AttendanceItem struct {
	ID              uint       `json:"id"`
	MemberID        uint       `json:"memberId"`
	VisitDate       string     `json:"visitDate"`
	CheckInAt       time.Time  `json:"checkInAt"`
	CheckOutAt      *time.Time `json:"checkOutAt"`
	PaymentID       *uint      `json:"paymentId"`
	DurationMinutes *int       `json:"durationMinutes"`
}
