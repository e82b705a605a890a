package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/repositories"
	"github.com/HSouheill/scholarfund_backend/utils"
)

const (
	// OTPTTL is how long an emailed code stays valid
	OTPTTL    = 10 * time.Minute
	otpLength = 6
)

// OTPStore persists OTPs
type OTPStore interface {
	Create(ctx context.Context, otp *models.OTP) error
	DeleteFor(ctx context.Context, email, wallet string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindLatest(ctx context.Context, email, wallet string) (*models.OTP, error)
	ReserveAttempt(ctx context.Context, id primitive.ObjectID, limit int) (*models.OTP, error)
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
	HasVerified(ctx context.Context, email, wallet string, now time.Time) (bool, error)
}

// SendLimiter throttles how often codes can be sent to one email
type SendLimiter interface {
	Allow(ctx context.Context, key string) error
}

// OTPService issues and checks email verification codes
type OTPService struct {
	store    OTPStore
	mailer   Mailer
	throttle SendLimiter
	now      func() time.Time
}

// NewOTPService creates the OTP service. A nil throttle disables send limits.
func NewOTPService(store OTPStore, mailer Mailer, throttle SendLimiter) *OTPService {
	return &OTPService{
		store:    store,
		mailer:   mailer,
		throttle: throttle,
		now:      time.Now,
	}
}

func normalizePair(email, wallet string) (string, string, error) {
	email, err := utils.NormalizeEmail(email)
	if err != nil {
		return "", "", validationError("Invalid email format")
	}
	wallet, err = utils.NormalizeWallet(wallet)
	if err != nil {
		return "", "", validationError("Invalid wallet address")
	}
	return email, wallet, nil
}

// Send replaces any earlier code for the pair and emails a new one
func (s *OTPService) Send(ctx context.Context, email, wallet string) (*models.OTP, error) {
	email, wallet, err := normalizePair(email, wallet)
	if err != nil {
		return nil, err
	}

	if s.throttle != nil {
		if err := s.throttle.Allow(ctx, email); err != nil {
			if errors.Is(err, utils.ErrTooManyOTPRequests) {
				return nil, newError(KindTooManyRequests, "Too many OTP requests. Please try again later")
			}
			log.Warn().Err(err).Msg("OTP throttle unavailable, sending without limit")
		}
	}

	if err := s.store.DeleteFor(ctx, email, wallet); err != nil {
		return nil, internalError("Failed to clear previous OTPs", err)
	}

	code, err := utils.GenerateOTP(otpLength)
	if err != nil {
		return nil, internalError("Failed to generate OTP", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError("Failed to hash OTP", err)
	}

	now := s.now()
	otp := &models.OTP{
		Email:         email,
		WalletAddress: wallet,
		CodeHash:      string(hash),
		ExpiresAt:     now.Add(OTPTTL),
		CreatedAt:     now,
	}
	if err := s.store.Create(ctx, otp); err != nil {
		return nil, internalError("Failed to store OTP", err)
	}

	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		if delErr := s.store.Delete(ctx, otp.ID); delErr != nil {
			log.Error().Err(delErr).Msg("Failed to remove undelivered OTP")
		}
		return nil, internalError("Failed to send OTP email", err)
	}

	log.Info().Str("email", utils.MaskEmail(email)).Str("wallet", wallet).Msg("OTP sent")
	return otp, nil
}

// Resend is Send under another name; the earlier code stops working
func (s *OTPService) Resend(ctx context.Context, email, wallet string) (*models.OTP, error) {
	return s.Send(ctx, email, wallet)
}

// Verify checks a code. Each call spends one attempt before comparing, so
// once the limit is spent even the right code fails.
func (s *OTPService) Verify(ctx context.Context, email, wallet, code string) error {
	email, wallet, err := normalizePair(email, wallet)
	if err != nil {
		return err
	}

	otp, err := s.store.FindLatest(ctx, email, wallet)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFoundError("OTP not found or expired")
		}
		return internalError("Failed to load OTP", err)
	}
	if err := s.checkUsable(otp); err != nil {
		return err
	}

	reserved, err := s.store.ReserveAttempt(ctx, otp.ID, models.MaxOTPAttempts)
	if err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return s.spentError(ctx, email, wallet)
		}
		return internalError("Failed to record OTP attempt", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(reserved.CodeHash), []byte(code)); err != nil {
		return validationError(fmt.Sprintf("Invalid OTP. %d attempt(s) remaining", reserved.RemainingAttempts()))
	}

	if err := s.store.MarkVerified(ctx, otp.ID); err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return validationError("OTP already used")
		}
		return internalError("Failed to verify OTP", err)
	}

	log.Info().Str("email", utils.MaskEmail(email)).Str("wallet", wallet).Msg("OTP verified")
	return nil
}

func (s *OTPService) checkUsable(otp *models.OTP) error {
	switch {
	case otp.Verified:
		return validationError("OTP already used")
	case otp.Expired(s.now()):
		return validationError("OTP has expired")
	case otp.Attempts >= models.MaxOTPAttempts:
		return validationError("Too many failed attempts. Please request a new OTP")
	}
	return nil
}

// spentError explains a lost attempt reservation: another request either
// verified the OTP or used up the last attempt.
func (s *OTPService) spentError(ctx context.Context, email, wallet string) error {
	otp, err := s.store.FindLatest(ctx, email, wallet)
	if err == nil && otp.Verified {
		return validationError("OTP already used")
	}
	return validationError("Too many failed attempts. Please request a new OTP")
}

// IsVerified reports whether the pair holds a verified, unexpired OTP
func (s *OTPService) IsVerified(ctx context.Context, email, wallet string) (bool, error) {
	email, wallet, err := normalizePair(email, wallet)
	if err != nil {
		return false, err
	}
	ok, err := s.store.HasVerified(ctx, email, wallet, s.now())
	if err != nil {
		return false, internalError("Failed to check OTP", err)
	}
	return ok, nil
}
