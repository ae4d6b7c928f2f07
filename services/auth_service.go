package services

import (
	"context"
	"errors"
	"strings"

	"gymcheckin/constants"
	apperrors "gymcheckin/errors"
	"gymcheckin/models"
	"gymcheckin/services/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	db     *gorm.DB
	tokens *TokenService
	logger logger.Logger
}

type AuthServiceOptions struct {
	DB     *gorm.DB
	Tokens *TokenService
	Logger logger.Logger
}

func NewAuthService(opts AuthServiceOptions) *AuthService {
	s := &AuthService{db: opts.DB, tokens: opts.Tokens, logger: opts.Logger}
	if s.logger == nil {
		s.logger = logger.Nop{}
	}
	return s
}

func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

func (s *AuthService) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, apperrors.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, apperrors.NewAppError(apperrors.ErrCodeDBError, "Login is temporarily unavailable", err)
	}
	return user, nil
}

// Login checks the password and returns a session token. Unknown email and
// wrong password both return ErrInvalidPassword.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		s.logger.Info("login failed: unknown email %s", email)
		return "", models.User{}, apperrors.ErrInvalidPassword
	}
	if err != nil {
		return "", models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.Info("login failed: wrong password for user %d", user.ID)
		return "", models.User{}, apperrors.ErrInvalidPassword
	}
	if user.Status != constants.UserStatusActive {
		s.logger.Info("login refused: user %d is disabled", user.ID)
		return "", models.User{}, apperrors.ErrUnauthorized
	}

	token, err := s.tokens.GenerateToken(UserInfo{UserId: user.ID, Role: user.Role})
	if err != nil {
		return "", models.User{}, err
	}
	s.logger.Info("user %d logged in", user.ID)
	return token, user, nil
}
