// Package membership derives whether a member currently holds an active,
// paid membership.
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymcheckin/constants"
	"gymcheckin/models"
	"gymcheckin/services/logger"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("member not found")

// Status is the derived membership state of one member. A nil ExpiresOn on an
// active status means the membership is open-ended.
type Status struct {
	SubjectID   uint       `json:"subjectId"`
	SubjectName string     `json:"subjectName"`
	IsActive    bool       `json:"isActive"`
	PlanName    string     `json:"planName"`
	ExpiresOn   *time.Time `json:"expiresOn,omitempty"`
	PaymentID   uint       `json:"paymentId,omitempty"`
}

// ExpiresOnString formats ExpiresOn as YYYY-MM-DD, or "" when open-ended.
func (s Status) ExpiresOnString() string {
	if s.ExpiresOn == nil {
		return ""
	}
	return s.ExpiresOn.Format(constants.DateLayout)
}

// StatusProvider answers membership lookups.
type StatusProvider interface {
	CurrentStatus(ctx context.Context, subjectID uint) (Status, error)
}

type Validator struct {
	db       *gorm.DB
	location *time.Location
	now      func() time.Time
	logger   logger.Logger
}

type ValidatorOptions struct {
	DB       *gorm.DB
	Location *time.Location
	Now      func() time.Time
	Logger   logger.Logger
}

func NewValidator(opts ValidatorOptions) *Validator {
	v := &Validator{
		db:       opts.DB,
		location: opts.Location,
		now:      opts.Now,
		logger:   opts.Logger,
	}
	if v.location == nil {
		v.location = time.UTC
	}
	if v.now == nil {
		v.now = time.Now
	}
	if v.logger == nil {
		v.logger = logger.Nop{}
	}
	return v
}

// CurrentStatus returns ErrNotFound when the member does not exist. An expired
// or unpaid membership is a normal result with IsActive false.
func (v *Validator) CurrentStatus(ctx context.Context, subjectID uint) (Status, error) {
	var user models.User
	err := v.db.WithContext(ctx).
		Select("id", "name", "membership_end_date").
		First(&user, subjectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Status{}, ErrNotFound
	}
	if err != nil {
		return Status{}, fmt.Errorf("load member %d: %w", subjectID, err)
	}

	var payment models.Payment
	var latest *models.Payment
	err = v.db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ? AND status = ?", subjectID, constants.PaymentStatusApproved).
		Order("payment_date DESC").
		Order("id DESC").
		First(&payment).Error
	switch {
	case err == nil:
		latest = &payment
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return Status{}, fmt.Errorf("load latest payment for member %d: %w", subjectID, err)
	}

	status := Derive(user, latest, v.now(), v.location)
	v.logger.Debug("membership status for member %d: active=%t plan=%q expires=%q",
		subjectID, status.IsActive, status.PlanName, status.ExpiresOnString())
	return status, nil
}

// Derive computes a Status from the member row and its latest approved payment
// (nil when there is none). An explicit membership end date overrides the
// payment-derived expiry.
func Derive(user models.User, latest *models.Payment, now time.Time, loc *time.Location) Status {
	if loc == nil {
		loc = time.UTC
	}
	status := Status{
		SubjectID:   user.ID,
		SubjectName: user.Name,
	}
	hasBasis := false

	if latest != nil {
		status.PaymentID = latest.ID
		status.PlanName = latest.Plan.Name
		hasBasis = true
		if latest.Plan.DurationDays != nil {
			paid := dateIn(latest.PaymentDate.In(loc), loc)
			expires := paid.AddDate(0, 0, *latest.Plan.DurationDays)
			status.ExpiresOn = &expires
		}
	}

	if user.MembershipEndDate != nil {
		end := dateIn(*user.MembershipEndDate, loc)
		status.ExpiresOn = &end
		hasBasis = true
	}

	today := dateIn(now.In(loc), loc)
	status.IsActive = hasBasis && (status.ExpiresOn == nil || !status.ExpiresOn.Before(today))
	return status
}

// dateIn keeps t's calendar date and anchors it at midnight in loc.
func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
