package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gymcheckin/constants"
	"gymcheckin/dto"
	apperrors "gymcheckin/errors"
	"gymcheckin/middleware"
	"gymcheckin/models"
	"gymcheckin/response"
	"gymcheckin/services"
	"gymcheckin/services/attendance"
	"gymcheckin/services/logger"
	"gymcheckin/validator"

	"github.com/gin-gonic/gin"
)

type ScanProcessor interface {
	ProcessScan(ctx context.Context, raw string, op services.Operator) (services.Outcome, error)
}

type AttendanceReader interface {
	ListForDay(ctx context.Context, date time.Time) ([]models.AttendanceRecord, error)
	Day(t time.Time) string
}

type CheckInTokenIssuer interface {
	Issue(ctx context.Context, userID uint) (services.IssuedToken, error)
}

type CheckInController struct {
	scans    ScanProcessor
	ledger   AttendanceReader
	tokens   CheckInTokenIssuer
	location *time.Location
	now      func() time.Time
	logger   logger.Logger
}

type CheckInControllerOptions struct {
	Scans    ScanProcessor
	Ledger   AttendanceReader
	Tokens   CheckInTokenIssuer
	Location *time.Location
	Now      func() time.Time
	Logger   logger.Logger
}

func NewCheckInController(opts CheckInControllerOptions) *CheckInController {
	c := &CheckInController{
		scans:    opts.Scans,
		ledger:   opts.Ledger,
		tokens:   opts.Tokens,
		location: opts.Location,
		now:      opts.Now,
		logger:   opts.Logger,
	}
	if c.location == nil {
		c.location = time.UTC
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = logger.Nop{}
	}
	return c
}

// Scan handles POST /checkin/scan. Check-in and check-out answer 200, business
// rejections 422 (409 for a scan that lost a race). Errors are left to
// ErrorHandler, which answers 503 for storage failures.
func (ctl *CheckInController) Scan(c *gin.Context) {
	var req dto.ScanRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(apperrors.NewAppError(apperrors.ErrCodeValidation, "Request body must contain a token", err))
		return
	}
	if err := validator.ValidateStruct(req); err != nil {
		c.Error(err)
		return
	}

	op := services.Operator{
		ID:        c.GetUint(middleware.ContextUserID),
		Role:      c.GetInt(middleware.ContextUserRole),
		RequestID: c.GetString(middleware.ContextRequestID),
	}

	out, err := ctl.scans.ProcessScan(c.Request.Context(), req.Token, op)
	if err != nil {
		ctl.logger.Error("scan request %s failed: %v", op.RequestID, err)
		c.Error(err)
		return
	}

	result := toScanResult(out)
	switch out.Kind {
	case services.OutcomeCheckedIn, services.OutcomeCheckedOut:
		response.SuccessWithMessage(c, out.Message, result)
	default:
		status := http.StatusUnprocessableEntity
		if out.Reason == apperrors.ErrCodeAlreadyProcessed {
			status = http.StatusConflict
		}
		response.Rejected(c, status, string(out.Reason), out.Message, result)
	}
}

// ListAttendance handles GET /attendance?date=YYYY-MM-DD; today when date is
// omitted.
func (ctl *CheckInController) ListAttendance(c *gin.Context) {
	var query dto.AttendanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.Error(apperrors.NewAppError(apperrors.ErrCodeValidation, "Invalid query", err))
		return
	}
	if err := validator.ValidateStruct(query); err != nil {
		c.Error(err)
		return
	}

	day := ctl.now()
	if query.Date != "" {
		parsed, err := time.ParseInLocation(constants.DateLayout, query.Date, ctl.location)
		if err != nil {
			c.Error(apperrors.NewAppError(apperrors.ErrCodeInvalidFormat, "date must be a date in YYYY-MM-DD form", err))
			return
		}
		day = parsed
	}

	records, err := ctl.ledger.ListForDay(c.Request.Context(), day)
	if err != nil {
		ctl.logger.Error("list attendance for %s: %v", ctl.ledger.Day(day), err)
		c.Error(apperrors.NewAppError(apperrors.ErrCodeDBError, "Attendance is temporarily unavailable, please try again.", err))
		return
	}

	items := make([]dto.AttendanceItem, 0, len(records))
	for _, rec := range records {
		item := dto.AttendanceItem{
			ID:         rec.ID,
			MemberID:   rec.UserID,
			VisitDate:  rec.VisitDate,
			CheckInAt:  rec.CheckInAt,
			CheckOutAt: rec.CheckOutAt,
			PaymentID:  rec.PaymentID,
		}
		if minutes, ok := attendance.DurationMinutes(rec); ok {
			item.DurationMinutes = &minutes
		}
		items = append(items, item)
	}
	response.SuccessWithTotal(c, items, len(items))
}

// IssueMemberToken handles GET /members/me/checkin-token for the logged-in member.
func (ctl *CheckInController) IssueMemberToken(c *gin.Context) {
	userID := c.GetUint(middleware.ContextUserID)

	issued, err := ctl.tokens.Issue(c.Request.Context(), userID)
	if err != nil {
		if !apperrors.IsAppError(err) && !errors.Is(err, apperrors.ErrUserNotFound) {
			ctl.logger.Error("issue check-in code for member %d: %v", userID, err)
		}
		c.Error(err)
		return
	}
	response.Success(c, issued)
}

func toScanResult(out services.Outcome) dto.ScanResult {
	result := dto.ScanResult{
		Outcome:         string(out.Kind),
		Reason:          string(out.Reason),
		DurationMinutes: out.DurationMinutes,
	}
	if out.Status != nil {
		result.MemberID = out.Status.SubjectID
		result.MemberName = out.Status.SubjectName
		result.PlanName = out.Status.PlanName
		result.ExpiresOn = out.Status.ExpiresOnString()
	}
	if out.Record != nil {
		checkIn := out.Record.CheckInAt
		result.RecordID = out.Record.ID
		result.CheckInAt = &checkIn
		result.CheckOutAt = out.Record.CheckOutAt
	}
	return result
}
