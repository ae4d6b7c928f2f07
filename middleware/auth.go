package middleware

import (
	"errors"
	"net/http"
	"strings"

	apperrors "gymcheckin/errors"
	"gymcheckin/response"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

type TokenParser interface {
	GetUserIDFromToken(tokenString string) (uint, int, error)
}

// AuthMiddleware verifies the bearer token and stores the caller's id and role.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		userID, userRole, err := tokens.GetUserIDFromToken(tokenString)
		if err != nil {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextUserRole, userRole)
		c.Next()
	}
}

// RoleMiddleware requires one of roles. It must run after AuthMiddleware.
func RoleMiddleware(roles ...int) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ContextUserRole)
		if !exists {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		role, ok := userRole.(int)
		if !ok || !hasRole(role, roles) {
			response.Forbidden(c)
			c.Abort()
			return
		}

		c.Next()
	}
}

func hasRole(role int, allowed []int) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// ErrorHandler renders the last error a handler attached with c.Error.
// Storage failures answer 503, validation failures 400 and other AppErrors
// 422 with their code as reason.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		switch {
		case apperrors.IsInfrastructure(err):
			response.Unavailable(c, apperrors.GetAppError(err).Message)
		case apperrors.IsValidation(err):
			response.ValidationError(c, apperrors.GetAppError(err).Message)
		case errors.Is(err, apperrors.ErrInvalidPassword):
			response.BadRequest(c, "Invalid email or password")
		case errors.Is(err, apperrors.ErrUserNotFound):
			response.NotFound(c)
		case errors.Is(err, apperrors.ErrUnauthorized):
			response.Forbidden(c)
		case apperrors.IsAppError(err):
			appErr := apperrors.GetAppError(err)
			response.Rejected(c, http.StatusUnprocessableEntity, string(appErr.Code), appErr.Message, nil)
		default:
			response.ServerError(c)
		}
	}
}
