package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gymcheckin/constants"
	apperrors "gymcheckin/errors"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

type staticParser map[string][2]int

func (p staticParser) GetUserIDFromToken(token string) (uint, int, error) {
	claims, ok := p[token]
	if !ok {
		return 0, 0, apperrors.NewAppError(apperrors.ErrCodeInvalidToken, "Invalid session token", nil)
	}
	return uint(claims[0]), claims[1], nil
}

func TestAuthAndRoleMiddleware(t *testing.T) {
	parser := staticParser{
		"staff-token":  {7, constants.RoleStaff},
		"member-token": {42, constants.RoleMember},
	}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	desk := r.Group("", AuthMiddleware(parser), RoleMiddleware(constants.RoleAdmin, constants.RoleStaff))
	desk.GET("/desk", func(c *gin.Context) {
		if c.GetUint(ContextUserID) != 7 || c.GetInt(ContextUserRole) != constants.RoleStaff {
			c.Status(http.StatusTeapot)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/any", AuthMiddleware(parser), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/unauthenticated", RoleMiddleware(constants.RoleStaff), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{name: "staff allowed", path: "/desk", header: "Bearer staff-token", status: http.StatusNoContent},
		{name: "member forbidden", path: "/desk", header: "Bearer member-token", status: http.StatusForbidden},
		{name: "missing header", path: "/desk", status: http.StatusUnauthorized},
		{name: "not bearer", path: "/desk", header: "staff-token", status: http.StatusUnauthorized},
		{name: "bad token", path: "/desk", header: "Bearer forged", status: http.StatusUnauthorized},
		{name: "no role gate", path: "/any", header: "Bearer member-token", status: http.StatusNoContent},
		{name: "role gate without auth", path: "/unauthenticated", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
			if w.Header().Get(HeaderRequestID) == "" {
				t.Fatal("expected a request id on the response")
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		mess   string
		reason string
	}{
		{
			name:   "storage failure",
			err:    apperrors.NewAppError(apperrors.ErrCodeDBError, "Check-in is temporarily unavailable, please try again.", errors.New("dial tcp")),
			status: http.StatusServiceUnavailable,
			mess:   "Check-in is temporarily unavailable, please try again.",
		},
		{
			name:   "validation",
			err:    apperrors.NewAppError(apperrors.ErrCodeRequiredField, "token is required", nil),
			status: http.StatusBadRequest,
			mess:   "token is required",
		},
		{
			name:   "business refusal",
			err:    apperrors.NewAppError(apperrors.ErrCodeNoMembership, "No active membership on file.", nil),
			status: http.StatusUnprocessableEntity,
			mess:   "No active membership on file.",
			reason: "NO_MEMBERSHIP",
		},
		{name: "bad credentials", err: apperrors.ErrInvalidPassword, status: http.StatusBadRequest, mess: "Invalid email or password"},
		{name: "unknown user", err: apperrors.ErrUserNotFound, status: http.StatusNotFound},
		{name: "disabled user", err: apperrors.ErrUnauthorized, status: http.StatusForbidden},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.Use(ErrorHandler())
			r.GET("/", func(c *gin.Context) { c.Error(tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d (%s)", tt.status, w.Code, w.Body.String())
			}
			var body struct {
				Code   int    `json:"code"`
				Mess   string `json:"mess"`
				Reason string `json:"reason"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != 0 {
				t.Fatalf("expected failure envelope, got code %d", body.Code)
			}
			if tt.mess != "" && body.Mess != tt.mess {
				t.Fatalf("expected message %q, got %q", tt.mess, body.Mess)
			}
			if body.Reason != tt.reason {
				t.Fatalf("expected reason %q, got %q", tt.reason, body.Reason)
			}
		})
	}
}

func TestErrorHandlerLeavesWrittenResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "done")
		c.Error(errors.New("logged only"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || w.Body.String() != "done" {
		t.Fatalf("expected handler response untouched, got %d %q", w.Code, w.Body.String())
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" || w.Header().Get(HeaderRequestID) != "abc-123" {
		t.Fatalf("expected request id echoed, got body %q header %q", w.Body.String(), w.Header().Get(HeaderRequestID))
	}
}
