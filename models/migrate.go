package models

import (
	"fmt"

	"gorm.io/gorm"
)

// openVisitIndex allows at most one open visit per member per day. Both
// postgres and sqlite accept partial indexes with this syntax.
const openVisitIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_open_visit
	ON attendance_records (user_id, visit_date) WHERE check_out_at IS NULL`

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Plan{}, &Payment{}, &AttendanceRecord{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec(openVisitIndex).Error; err != nil {
		return fmt.Errorf("create open visit index: %w", err)
	}
	return nil
}
