package services

import (
	"context"
	"errors"
	"time"

	apperrors "gymcheckin/errors"
	"gymcheckin/services/logger"
	"gymcheckin/services/membership"
	"gymcheckin/services/qrtoken"
)

// IssuedToken is the QR payload handed to a member's device.
type IssuedToken struct {
	Payload   string    `json:"payload"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CheckInTokenService mints check-in tokens for members holding an active,
// paid membership.
type CheckInTokenService struct {
	codec   *qrtoken.Codec
	members membership.StatusProvider
	now     func() time.Time
	logger  logger.Logger
}

type CheckInTokenServiceOptions struct {
	Codec   *qrtoken.Codec
	Members membership.StatusProvider
	Now     func() time.Time
	Logger  logger.Logger
}

func NewCheckInTokenService(opts CheckInTokenServiceOptions) *CheckInTokenService {
	s := &CheckInTokenService{
		codec:   opts.Codec,
		members: opts.Members,
		now:     opts.Now,
		logger:  opts.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = logger.Nop{}
	}
	return s
}

func (s *CheckInTokenService) Issue(ctx context.Context, userID uint) (IssuedToken, error) {
	status, err := s.members.CurrentStatus(ctx, userID)
	if errors.Is(err, membership.ErrNotFound) {
		return IssuedToken{}, apperrors.ErrUserNotFound
	}
	if err != nil {
		return IssuedToken{}, apperrors.NewAppError(apperrors.ErrCodeDBError, "Check-in codes are temporarily unavailable, please try again.", err)
	}
	if !status.IsActive || status.PaymentID == 0 {
		s.logger.Info("check-in code refused for member %d: no active paid membership", userID)
		return IssuedToken{}, apperrors.NewAppError(apperrors.ErrCodeNoMembership, "No active membership on file.", nil)
	}

	now := s.now()
	tok := s.codec.Mint(int64(userID), int64(status.PaymentID), now)
	payload, err := qrtoken.Encode(tok)
	if err != nil {
		return IssuedToken{}, err
	}
	issuedAt := tok.IssuedAt()
	return IssuedToken{
		Payload:   payload,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(s.codec.MaxAge()),
	}, nil
}
