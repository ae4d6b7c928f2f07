// Package attendance stores member visits. The one-open-visit-per-day rule
// and single check-out are enforced by the database, not by read-then-write
// in application code.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gymcheckin/constants"
	"gymcheckin/models"
	"gymcheckin/services/logger"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrAlreadyOpen     = errors.New("member already has an open visit today")
	ErrAlreadyClosed   = errors.New("visit already checked out")
	ErrRecordNotFound  = errors.New("attendance record not found")
	ErrCheckOutOrdered = errors.New("check-out precedes check-in")
)

const pgUniqueViolation = "23505"

type Ledger struct {
	db       *gorm.DB
	location *time.Location
	logger   logger.Logger
}

type LedgerOptions struct {
	DB       *gorm.DB
	Location *time.Location
	Logger   logger.Logger
}

func NewLedger(opts LedgerOptions) *Ledger {
	l := &Ledger{
		db:       opts.DB,
		location: opts.Location,
		logger:   opts.Logger,
	}
	if l.location == nil {
		l.location = time.UTC
	}
	if l.logger == nil {
		l.logger = logger.Nop{}
	}
	return l
}

// Day returns the visit day key of t in the ledger's timezone.
func (l *Ledger) Day(t time.Time) string {
	return t.In(l.location).Format(constants.DateLayout)
}

// OpenRecordFor returns the open visit of subjectID on the day of onDate, or
// nil when there is none.
func (l *Ledger) OpenRecordFor(ctx context.Context, subjectID uint, onDate time.Time) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND visit_date = ? AND check_out_at IS NULL", subjectID, l.Day(onDate)).
		Order("id DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open visit for member %d: %w", subjectID, err)
	}
	return &rec, nil
}

// CheckIn opens a visit at. A concurrent or prior open visit on the same day
// makes the insert fail with ErrAlreadyOpen.
func (l *Ledger) CheckIn(ctx context.Context, subjectID uint, membershipRef *uint, at time.Time) (*models.AttendanceRecord, error) {
	rec := &models.AttendanceRecord{
		UserID:    subjectID,
		VisitDate: l.Day(at),
		CheckInAt: at,
		PaymentID: membershipRef,
	}
	if err := l.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyOpen
		}
		return nil, fmt.Errorf("check in member %d: %w", subjectID, err)
	}
	l.logger.Info("member %d checked in, visit %d on %s", subjectID, rec.ID, rec.VisitDate)
	return rec, nil
}

// CheckOut closes the visit recordID at. The update is conditional on the
// visit still being open, so only the first of concurrent callers succeeds;
// the others get ErrAlreadyClosed.
func (l *Ledger) CheckOut(ctx context.Context, recordID uint, at time.Time) (*models.AttendanceRecord, error) {
	rec, err := l.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.CheckOutAt != nil {
		return nil, ErrAlreadyClosed
	}
	if at.Before(rec.CheckInAt) {
		return nil, ErrCheckOutOrdered
	}

	res := l.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Where("id = ? AND check_out_at IS NULL", recordID).
		Update("check_out_at", at)
	if res.Error != nil {
		return nil, fmt.Errorf("check out visit %d: %w", recordID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyClosed
	}

	rec.CheckOutAt = &at
	l.logger.Info("member %d checked out, visit %d", rec.UserID, rec.ID)
	return rec, nil
}

// Get loads one record by id.
func (l *Ledger) Get(ctx context.Context, recordID uint) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := l.db.WithContext(ctx).First(&rec, recordID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load visit %d: %w", recordID, err)
	}
	return &rec, nil
}

// ListForDay returns every visit opened on the day of date, oldest first.
func (l *Ledger) ListForDay(ctx context.Context, date time.Time) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := l.db.WithContext(ctx).
		Where("visit_date = ?", l.Day(date)).
		Order("check_in_at ASC").
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list visits for %s: %w", l.Day(date), err)
	}
	return records, nil
}

// OpenBefore returns visits still open that were opened before the day of date.
func (l *Ledger) OpenBefore(ctx context.Context, date time.Time) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := l.db.WithContext(ctx).
		Where("visit_date < ? AND check_out_at IS NULL", l.Day(date)).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list stale open visits: %w", err)
	}
	return records, nil
}

// EndOfVisitDay returns the last second of the record's visit day.
func (l *Ledger) EndOfVisitDay(rec models.AttendanceRecord) (time.Time, error) {
	day, err := time.ParseInLocation(constants.DateLayout, rec.VisitDate, l.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse visit date %q: %w", rec.VisitDate, err)
	}
	return day.AddDate(0, 0, 1).Add(-time.Second), nil
}

// DurationMinutes returns the visit length truncated to whole minutes. ok is
// false while the visit is still open.
func DurationMinutes(rec models.AttendanceRecord) (minutes int, ok bool) {
	if rec.CheckOutAt == nil {
		return 0, false
	}
	return int(rec.CheckOutAt.Sub(rec.CheckInAt) / time.Minute), true
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, pgUniqueViolation)
}
