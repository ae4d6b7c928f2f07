package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "gymcheckin/errors"
	"gymcheckin/models"
	"gymcheckin/services/attendance"
	"gymcheckin/services/logger"
	"gymcheckin/services/membership"
	"gymcheckin/services/notification"
	"gymcheckin/services/qrtoken"
)

// OutcomeKind is the result class of one scan.
type OutcomeKind string

const (
	OutcomeCheckedIn  OutcomeKind = "checked_in"
	OutcomeCheckedOut OutcomeKind = "checked_out"
	OutcomeRejected   OutcomeKind = "rejected"
)

// Outcome is what the operator sees after a scan. Reason is set only for
// rejections; Record and Status are set when the scan got that far.
type Outcome struct {
	Kind            OutcomeKind              `json:"kind"`
	Reason          apperrors.ErrorCode      `json:"reason,omitempty"`
	Message         string                   `json:"message"`
	Record          *models.AttendanceRecord `json:"record,omitempty"`
	Status          *membership.Status       `json:"membership,omitempty"`
	DurationMinutes int                      `json:"durationMinutes,omitempty"`
	At              time.Time                `json:"at"`
}

// Operator identifies the authenticated staff member submitting a scan.
type Operator struct {
	ID        uint
	Role      int
	RequestID string
}

type TokenVerifier interface {
	Decode(raw string) (qrtoken.Token, error)
	Verify(tok qrtoken.Token, now time.Time) error
}

type AttendanceLedger interface {
	OpenRecordFor(ctx context.Context, subjectID uint, onDate time.Time) (*models.AttendanceRecord, error)
	CheckIn(ctx context.Context, subjectID uint, membershipRef *uint, at time.Time) (*models.AttendanceRecord, error)
	CheckOut(ctx context.Context, recordID uint, at time.Time) (*models.AttendanceRecord, error)
}

// CheckInService turns a scanned token into exactly one attendance
// transition, or a rejection. It is the only place that writes
// operator-facing text.
type CheckInService struct {
	tokens    TokenVerifier
	members   membership.StatusProvider
	ledger    AttendanceLedger
	publisher notification.Publisher
	now       func() time.Time
	location  *time.Location
	logger    logger.Logger
}

type CheckInServiceOptions struct {
	Tokens    TokenVerifier
	Members   membership.StatusProvider
	Ledger    AttendanceLedger
	Publisher notification.Publisher
	Now       func() time.Time
	Location  *time.Location
	Logger    logger.Logger
}

func NewCheckInService(opts CheckInServiceOptions) *CheckInService {
	s := &CheckInService{
		tokens:    opts.Tokens,
		members:   opts.Members,
		ledger:    opts.Ledger,
		publisher: opts.Publisher,
		now:       opts.Now,
		location:  opts.Location,
		logger:    opts.Logger,
	}
	if s.publisher == nil {
		s.publisher = notification.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.logger == nil {
		s.logger = logger.Nop{}
	}
	return s
}

// ProcessScan decodes and verifies raw, checks the member's entitlement and
// toggles today's visit. Rejections are returned as outcomes; a non-nil error
// is always an infrastructure failure and the ledger state is unknown to the
// caller only in that case.
func (s *CheckInService) ProcessScan(ctx context.Context, raw string, op Operator) (Outcome, error) {
	now := s.now()

	tok, err := s.tokens.Decode(raw)
	if err != nil {
		s.logger.Info("scan by operator %d rejected: malformed token: %v", op.ID, err)
		return s.reject(op, now, apperrors.ErrCodeMalformedToken, "This is not a valid check-in code.", nil), nil
	}

	if err := s.tokens.Verify(tok, now); err != nil {
		switch {
		case errors.Is(err, qrtoken.ErrBadSignature):
			s.logger.Warn("possible forged check-in token: member %d payment %d issued %d, operator %d, request %s",
				tok.UserID, tok.PaymentID, tok.Timestamp, op.ID, op.RequestID)
			return s.reject(op, now, apperrors.ErrCodeBadSignature, "This check-in code failed verification. Ask the member to generate a new one.", nil), nil
		case errors.Is(err, qrtoken.ErrExpired):
			s.logger.Info("scan by operator %d rejected for member %d: %v", op.ID, tok.UserID, err)
			return s.reject(op, now, apperrors.ErrCodeExpired, "This check-in code has expired. Ask the member to refresh it.", nil), nil
		default:
			s.logger.Error("verify check-in token for member %d: %v", tok.UserID, err)
			return s.reject(op, now, apperrors.ErrCodeBadSignature, "This check-in code failed verification. Ask the member to generate a new one.", nil), nil
		}
	}

	subjectID := uint(tok.UserID)
	status, err := s.members.CurrentStatus(ctx, subjectID)
	if errors.Is(err, membership.ErrNotFound) {
		s.logger.Info("scan by operator %d rejected: unknown member %d", op.ID, subjectID)
		return s.reject(op, now, apperrors.ErrCodeUnknownSubject, "No member matches this check-in code.", nil), nil
	}
	if err != nil {
		return Outcome{}, s.infrastructure("membership lookup", err)
	}
	if !status.IsActive {
		s.logger.Info("scan by operator %d rejected: member %d has no active membership", op.ID, subjectID)
		return s.reject(op, now, apperrors.ErrCodeMembershipInactive, inactiveMessage(status), &status), nil
	}

	open, err := s.ledger.OpenRecordFor(ctx, subjectID, now)
	if err != nil {
		return Outcome{}, s.infrastructure("open visit lookup", err)
	}

	if open == nil {
		ref := uint(tok.PaymentID)
		rec, err := s.ledger.CheckIn(ctx, subjectID, &ref, now)
		if errors.Is(err, attendance.ErrAlreadyOpen) {
			s.logger.Info("check-in race lost for member %d, operator %d", subjectID, op.ID)
			return s.reject(op, now, apperrors.ErrCodeAlreadyProcessed, "This member was checked in a moment ago.", &status), nil
		}
		if err != nil {
			return Outcome{}, s.infrastructure("check in", err)
		}
		out := Outcome{
			Kind:    OutcomeCheckedIn,
			Message: checkedInMessage(status, rec.CheckInAt.In(s.location)),
			Record:  rec,
			Status:  &status,
			At:      now,
		}
		s.publish(op, out)
		return out, nil
	}

	rec, err := s.ledger.CheckOut(ctx, open.ID, now)
	if errors.Is(err, attendance.ErrAlreadyClosed) {
		s.logger.Info("check-out race lost for member %d visit %d, operator %d", subjectID, open.ID, op.ID)
		return s.reject(op, now, apperrors.ErrCodeAlreadyProcessed, "This member was checked out a moment ago.", &status), nil
	}
	if err != nil {
		return Outcome{}, s.infrastructure("check out", err)
	}
	minutes, _ := attendance.DurationMinutes(*rec)
	out := Outcome{
		Kind:            OutcomeCheckedOut,
		Message:         checkedOutMessage(status, minutes),
		Record:          rec,
		Status:          &status,
		DurationMinutes: minutes,
		At:              now,
	}
	s.publish(op, out)
	return out, nil
}

func (s *CheckInService) reject(op Operator, now time.Time, reason apperrors.ErrorCode, message string, status *membership.Status) Outcome {
	out := Outcome{
		Kind:    OutcomeRejected,
		Reason:  reason,
		Message: message,
		Status:  status,
		At:      now,
	}
	s.publish(op, out)
	return out
}

func (s *CheckInService) infrastructure(step string, err error) error {
	s.logger.Error("check-in %s failed: %v", step, err)
	return apperrors.NewAppError(apperrors.ErrCodeDBError, "Check-in is temporarily unavailable, please try again.", err)
}

func (s *CheckInService) publish(op Operator, out Outcome) {
	event := notification.ScanEvent{
		Kind:            string(out.Kind),
		Reason:          string(out.Reason),
		Message:         out.Message,
		DurationMinutes: out.DurationMinutes,
		OperatorID:      op.ID,
		At:              out.At,
	}
	if out.Status != nil {
		event.SubjectID = out.Status.SubjectID
		event.SubjectName = out.Status.SubjectName
		event.PlanName = out.Status.PlanName
	}
	if out.Record != nil {
		event.RecordID = out.Record.ID
	}
	if err := s.publisher.Publish(event); err != nil {
		s.logger.Error("publish scan event: %v", err)
	}
}

func inactiveMessage(status membership.Status) string {
	if expires := status.ExpiresOnString(); expires != "" {
		return fmt.Sprintf("Membership expired on %s.", expires)
	}
	return "No active membership on file."
}

func checkedInMessage(status membership.Status, at time.Time) string {
	return fmt.Sprintf("Welcome, %s (%s). Checked in at %s.", status.SubjectName, status.PlanName, at.Format("15:04"))
}

func checkedOutMessage(status membership.Status, minutes int) string {
	return fmt.Sprintf("Goodbye, %s. Visit lasted %d minutes.", status.SubjectName, minutes)
}
