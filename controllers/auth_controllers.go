package controllers

import (
	"context"

	"gymcheckin/dto"
	apperrors "gymcheckin/errors"
	"gymcheckin/models"
	"gymcheckin/response"
	"gymcheckin/validator"

	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, models.User, error)
}

type AuthController struct {
	auth Authenticator
}

func NewAuthController(auth Authenticator) *AuthController {
	return &AuthController{auth: auth}
}

func (ctl *AuthController) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBind(&input); err != nil {
		c.Error(apperrors.NewAppError(apperrors.ErrCodeValidation, "Invalid request body", err))
		return
	}
	if err := validator.ValidateStruct(input); err != nil {
		c.Error(err)
		return
	}

	token, user, err := ctl.auth.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, dto.UserLoginResponse{
		UserID:    user.ID,
		UserName:  user.Name,
		UserEmail: user.Email,
		UserRole:  user.Role,
		CreatedAt: user.CreatedAt,
		Token:     token,
	})
}
