package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gymcheckin/constants"
	apperrors "gymcheckin/errors"
	"gymcheckin/middleware"
	"gymcheckin/models"
	"gymcheckin/services"
	"gymcheckin/services/membership"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

type fakeScans struct {
	out     services.Outcome
	err     error
	lastRaw string
	lastOp  services.Operator
}

func (f *fakeScans) ProcessScan(_ context.Context, raw string, op services.Operator) (services.Outcome, error) {
	f.lastRaw = raw
	f.lastOp = op
	return f.out, f.err
}

type fakeAttendance struct {
	records []models.AttendanceRecord
	err     error
	asked   time.Time
}

func (f *fakeAttendance) ListForDay(_ context.Context, date time.Time) ([]models.AttendanceRecord, error) {
	f.asked = date
	return f.records, f.err
}

func (f *fakeAttendance) Day(t time.Time) string { return t.Format(constants.DateLayout) }

type fakeIssuer struct {
	issued services.IssuedToken
	err    error
}

func (f fakeIssuer) Issue(context.Context, uint) (services.IssuedToken, error) {
	return f.issued, f.err
}

type envelope struct {
	Code   int             `json:"code"`
	Mess   string          `json:"mess"`
	Reason string          `json:"reason"`
	Total  int             `json:"total"`
	Data   json.RawMessage `json:"data"`
}

func newTestRouter(ctl *CheckInController, userID uint, role int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextUserRole, role)
		c.Next()
	})
	r.POST("/checkin/scan", ctl.Scan)
	r.GET("/attendance", ctl.ListAttendance)
	r.GET("/members/me/checkin-token", ctl.IssueMemberToken)
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return w, env
}

func TestScanStatusCodes(t *testing.T) {
	checkIn := time.Date(2024, time.January, 4, 9, 0, 0, 0, time.UTC)
	status := &membership.Status{SubjectID: 42, SubjectName: "Ana", IsActive: true, PlanName: "Monthly"}
	tests := []struct {
		name   string
		out    services.Outcome
		err    error
		status int
		reason string
		mess   string
	}{
		{
			name:   "checked in",
			out:    services.Outcome{Kind: services.OutcomeCheckedIn, Message: "Welcome, Ana (Monthly). Checked in at 09:00.", Status: status, Record: &models.AttendanceRecord{ID: 9, UserID: 42, CheckInAt: checkIn}},
			status: http.StatusOK,
			mess:   "Welcome, Ana (Monthly). Checked in at 09:00.",
		},
		{
			name:   "checked out",
			out:    services.Outcome{Kind: services.OutcomeCheckedOut, Message: "Goodbye, Ana. Visit lasted 10 minutes.", DurationMinutes: 10},
			status: http.StatusOK,
			mess:   "Goodbye, Ana. Visit lasted 10 minutes.",
		},
		{
			name:   "expired",
			out:    services.Outcome{Kind: services.OutcomeRejected, Reason: apperrors.ErrCodeExpired, Message: "This check-in code has expired. Ask the member to refresh it."},
			status: http.StatusUnprocessableEntity,
			reason: "EXPIRED",
		},
		{
			name:   "already processed",
			out:    services.Outcome{Kind: services.OutcomeRejected, Reason: apperrors.ErrCodeAlreadyProcessed, Message: "This member was checked in a moment ago."},
			status: http.StatusConflict,
			reason: "ALREADY_PROCESSED",
		},
		{
			name:   "storage down",
			err:    apperrors.NewAppError(apperrors.ErrCodeDBError, "Check-in is temporarily unavailable, please try again.", errors.New("dial tcp")),
			status: http.StatusServiceUnavailable,
			mess:   "Check-in is temporarily unavailable, please try again.",
		},
		{
			name:   "unexpected",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scans := &fakeScans{out: tt.out, err: tt.err}
			ctl := NewCheckInController(CheckInControllerOptions{Scans: scans})
			r := newTestRouter(ctl, 7, constants.RoleStaff)

			w, env := doRequest(t, r, http.MethodPost, "/checkin/scan", `{"token":"raw-payload"}`)
			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d (%s)", tt.status, w.Code, w.Body.String())
			}
			if env.Reason != tt.reason {
				t.Fatalf("expected reason %q, got %q", tt.reason, env.Reason)
			}
			if tt.mess != "" && env.Mess != tt.mess {
				t.Fatalf("expected message %q, got %q", tt.mess, env.Mess)
			}
			if scans.lastRaw != "raw-payload" {
				t.Fatalf("expected raw token forwarded, got %q", scans.lastRaw)
			}
			if scans.lastOp.ID != 7 || scans.lastOp.Role != constants.RoleStaff || scans.lastOp.RequestID != "req-42" {
				t.Fatalf("unexpected operator %+v", scans.lastOp)
			}
		})
	}
}

func TestScanReturnsRecordData(t *testing.T) {
	checkIn := time.Date(2024, time.January, 4, 9, 0, 0, 0, time.UTC)
	scans := &fakeScans{out: services.Outcome{
		Kind:    services.OutcomeCheckedIn,
		Message: "Welcome",
		Status:  &membership.Status{SubjectID: 42, SubjectName: "Ana", PlanName: "Monthly", IsActive: true},
		Record:  &models.AttendanceRecord{ID: 9, UserID: 42, CheckInAt: checkIn},
	}}
	r := newTestRouter(NewCheckInController(CheckInControllerOptions{Scans: scans}), 7, constants.RoleStaff)

	_, env := doRequest(t, r, http.MethodPost, "/checkin/scan", `{"token":"raw"}`)
	var data struct {
		Outcome    string `json:"outcome"`
		RecordID   uint   `json:"recordId"`
		MemberID   uint   `json:"memberId"`
		MemberName string `json:"memberName"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Outcome != "checked_in" || data.RecordID != 9 || data.MemberID != 42 || data.MemberName != "Ana" {
		t.Fatalf("unexpected data %+v", data)
	}
}

func TestScanRequiresToken(t *testing.T) {
	scans := &fakeScans{}
	r := newTestRouter(NewCheckInController(CheckInControllerOptions{Scans: scans}), 7, constants.RoleStaff)

	for _, body := range []string{`{}`, `{"token":""}`, `not json`} {
		w, _ := doRequest(t, r, http.MethodPost, "/checkin/scan", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, w.Code)
		}
	}
	if scans.lastRaw != "" {
		t.Fatal("expected scan not to be processed")
	}
}

func TestListAttendance(t *testing.T) {
	loc := time.UTC
	in := time.Date(2024, time.January, 4, 8, 0, 0, 0, loc)
	out := in.Add(45 * time.Minute)
	ledger := &fakeAttendance{records: []models.AttendanceRecord{
		{ID: 1, UserID: 42, VisitDate: "2024-01-04", CheckInAt: in, CheckOutAt: &out},
		{ID: 2, UserID: 43, VisitDate: "2024-01-04", CheckInAt: in.Add(time.Hour)},
	}}
	ctl := NewCheckInController(CheckInControllerOptions{Ledger: ledger, Location: loc})
	r := newTestRouter(ctl, 7, constants.RoleStaff)

	w, env := doRequest(t, r, http.MethodGet, "/attendance?date=2024-01-04", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if env.Total != 2 {
		t.Fatalf("expected 2 records, got %d", env.Total)
	}
	if got := ledger.asked.Format(constants.DateLayout); got != "2024-01-04" {
		t.Fatalf("expected ledger asked for 2024-01-04, got %s", got)
	}
	var items []struct {
		ID              uint `json:"id"`
		DurationMinutes *int `json:"durationMinutes"`
	}
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if items[0].DurationMinutes == nil || *items[0].DurationMinutes != 45 {
		t.Fatalf("expected 45 minutes on closed visit, got %v", items[0].DurationMinutes)
	}
	if items[1].DurationMinutes != nil {
		t.Fatalf("expected no duration on open visit, got %d", *items[1].DurationMinutes)
	}
}

func TestListAttendanceErrors(t *testing.T) {
	ledger := &fakeAttendance{err: errors.New("db down")}
	r := newTestRouter(NewCheckInController(CheckInControllerOptions{Ledger: ledger}), 7, constants.RoleStaff)

	if w, _ := doRequest(t, r, http.MethodGet, "/attendance?date=yesterday", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", w.Code)
	}
	if w, _ := doRequest(t, r, http.MethodGet, "/attendance", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when storage fails, got %d", w.Code)
	}
}

func TestIssueMemberToken(t *testing.T) {
	issuedAt := time.Date(2024, time.January, 4, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		issuer fakeIssuer
		status int
		reason string
	}{
		{name: "issued", issuer: fakeIssuer{issued: services.IssuedToken{Payload: "{}", IssuedAt: issuedAt, ExpiresAt: issuedAt.Add(5 * time.Minute)}}, status: http.StatusOK},
		{name: "no membership", issuer: fakeIssuer{err: apperrors.NewAppError(apperrors.ErrCodeNoMembership, "No active membership on file.", nil)}, status: http.StatusUnprocessableEntity, reason: "NO_MEMBERSHIP"},
		{name: "unknown member", issuer: fakeIssuer{err: apperrors.ErrUserNotFound}, status: http.StatusNotFound},
		{name: "storage down", issuer: fakeIssuer{err: apperrors.NewAppError(apperrors.ErrCodeDBError, "try again", nil)}, status: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := NewCheckInController(CheckInControllerOptions{Tokens: tt.issuer})
			r := newTestRouter(ctl, 42, constants.RoleMember)

			w, env := doRequest(t, r, http.MethodGet, "/members/me/checkin-token", "")
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d (%s)", tt.status, w.Code, w.Body.String())
			}
			if env.Reason != tt.reason {
				t.Fatalf("expected reason %q, got %q", tt.reason, env.Reason)
			}
		})
	}
}
