package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymcheckin/models"
	"gymcheckin/services/attendance"
	"gymcheckin/services/logger"

	"github.com/robfig/cron/v3"
)

// VisitCloser is the part of the attendance ledger the auto-close job needs.
type VisitCloser interface {
	OpenBefore(ctx context.Context, date time.Time) ([]models.AttendanceRecord, error)
	EndOfVisitDay(rec models.AttendanceRecord) (time.Time, error)
	CheckOut(ctx context.Context, recordID uint, at time.Time) (*models.AttendanceRecord, error)
}

// AutoCloser checks out visits left open on an earlier day at the last
// second of their visit day.
type AutoCloser struct {
	ledger VisitCloser
	now    func() time.Time
	logger logger.Logger
}

func NewAutoCloser(ledger VisitCloser, now func() time.Time, log logger.Logger) *AutoCloser {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &AutoCloser{ledger: ledger, now: now, logger: log}
}

// Run returns the number of visits it closed. A visit closed concurrently by a
// scan is skipped.
func (a *AutoCloser) Run(ctx context.Context) (int, error) {
	stale, err := a.ledger.OpenBefore(ctx, a.now())
	if err != nil {
		return 0, err
	}

	closed := 0
	var errs []error
	for _, rec := range stale {
		at, err := a.ledger.EndOfVisitDay(rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if at.Before(rec.CheckInAt) {
			at = rec.CheckInAt
		}
		_, err = a.ledger.CheckOut(ctx, rec.ID, at)
		switch {
		case err == nil:
			closed++
		case errors.Is(err, attendance.ErrAlreadyClosed):
		default:
			errs = append(errs, fmt.Errorf("auto close visit %d: %w", rec.ID, err))
		}
	}
	return closed, errors.Join(errs...)
}

// InitCronJobs schedules the auto-close job and starts c. An empty schedule
// disables the job.
func InitCronJobs(c *cron.Cron, schedule string, closer *AutoCloser, log logger.Logger) error {
	if log == nil {
		log = logger.Nop{}
	}
	if schedule == "" {
		log.Info("auto close disabled")
		c.Start()
		return nil
	}

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		closed, err := closer.Run(ctx)
		if err != nil {
			log.Error("auto close: closed %d visits, errors: %v", closed, err)
			return
		}
		log.Info("auto close: closed %d visits", closed)
	})
	if err != nil {
		return fmt.Errorf("schedule auto close %q: %w", schedule, err)
	}

	c.Start()
	log.Info("cron jobs initialized")
	return nil
}
