package testutil

import (
	"testing"
	"time"

	"gymcheckin/constants"
	"gymcheckin/models"

	"gorm.io/gorm"
)

// CreateUser inserts a user with the given role.
func CreateUser(t testing.TB, db *gorm.DB, name string, role int) models.User {
	t.Helper()
	user := models.User{
		Name:   name,
		Email:  name + "@gym.test",
		Role:   role,
		Status: constants.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

// CreatePlan inserts a plan; durationDays <= 0 creates an open-ended plan.
func CreatePlan(t testing.TB, db *gorm.DB, name string, durationDays int) models.Plan {
	t.Helper()
	plan := models.Plan{Name: name}
	if durationDays > 0 {
		plan.DurationDays = &durationDays
	}
	if err := db.Create(&plan).Error; err != nil {
		t.Fatalf("create plan %s: %v", name, err)
	}
	return plan
}

// CreatePayment inserts a payment for user on plan.
func CreatePayment(t testing.TB, db *gorm.DB, userID, planID uint, status int, paidAt time.Time) models.Payment {
	t.Helper()
	payment := models.Payment{
		UserID:      userID,
		PlanID:      planID,
		Status:      status,
		PaymentDate: paidAt,
	}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("create payment: %v", err)
	}
	return payment
}

// CountAttendance returns the number of attendance rows for userID.
func CountAttendance(t testing.TB, db *gorm.DB, userID uint) (total, open int64) {
	t.Helper()
	if err := db.Model(&models.AttendanceRecord{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		t.Fatalf("count attendance: %v", err)
	}
	if err := db.Model(&models.AttendanceRecord{}).Where("user_id = ? AND check_out_at IS NULL", userID).Count(&open).Error; err != nil {
		t.Fatalf("count open attendance: %v", err)
	}
	return total, open
}
