package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/repositories"
	"github.com/HSouheill/scholarfund_backend/utils"
)

const msgUserNotFound = "User not found"

// UserStore persists onboarded users
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByWallet(ctx context.Context, wallet string) (*models.User, error)
	UpdateProfile(ctx context.Context, wallet string, profile models.Profile) (*models.User, error)
	UpdatePreferences(ctx context.Context, wallet string, prefs models.NotificationPreferences) (*models.User, error)
	UpdateStudentData(ctx context.Context, wallet string, data *models.StudentData) (*models.User, error)
	UpdateProviderData(ctx context.Context, wallet string, data *models.ProviderData) (*models.User, error)
	SetVerifiedEmail(ctx context.Context, wallet, email string) (*models.User, error)
	TouchLogin(ctx context.Context, wallet string, at time.Time) error
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error)
}

// EmailVerifier tells whether an (email, wallet) pair passed OTP verification
type EmailVerifier interface {
	IsVerified(ctx context.Context, email, wallet string) (bool, error)
}

// UserService handles onboarding and profile management
type UserService struct {
	store UserStore
	otp   EmailVerifier
	now   func() time.Time
}

func NewUserService(store UserStore, otp EmailVerifier) *UserService {
	return &UserService{store: store, otp: otp, now: time.Now}
}

// Onboard creates the user document of a wallet
func (s *UserService) Onboard(ctx context.Context, req models.OnboardingRequest) (*models.User, error) {
	wallet, err := utils.NormalizeWallet(req.WalletAddress)
	if err != nil {
		return nil, validationError("Invalid wallet address")
	}

	switch req.Role {
	case models.RoleStudent:
		if req.StudentData == nil {
			return nil, validationError("studentData is required for students")
		}
		req.ProviderData = nil
	case models.RoleProvider:
		if req.ProviderData == nil {
			return nil, validationError("providerData is required for providers")
		}
		req.StudentData = nil
	default:
		return nil, validationError("Role must be student or provider")
	}

	if _, err := s.store.FindByWallet(ctx, wallet); err == nil {
		return nil, conflictError("User already onboarded")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, internalError("Failed to check user", err)
	}

	now := s.now()
	user := &models.User{
		WalletAddress:           wallet,
		Role:                    req.Role,
		Profile:                 sanitizeProfile(req.Profile),
		StudentData:             req.StudentData,
		ProviderData:            req.ProviderData,
		NotificationPreferences: models.DefaultNotificationPreferences(),
		OnboardingCompleted:     true,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	if strings.TrimSpace(req.Email) != "" {
		email, err := utils.NormalizeEmail(req.Email)
		if err != nil {
			return nil, validationError("Invalid email format")
		}
		user.Email = email

		verified, err := s.otp.IsVerified(ctx, email, wallet)
		if err != nil {
			log.Warn().Err(err).Str("wallet", wallet).Msg("Could not check OTP state during onboarding")
		}
		user.EmailVerified = verified
	}

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, conflictError("User already onboarded")
		}
		return nil, internalError("Failed to create user", err)
	}

	log.Info().Str("wallet", wallet).Str("role", string(user.Role)).Msg("User onboarded")
	return user, nil
}

// Status never fails with not-found; unknown wallets are simply not onboarded
func (s *UserService) Status(ctx context.Context, wallet string) (*models.OnboardingStatus, error) {
	wallet, err := utils.NormalizeWallet(wallet)
	if err != nil {
		return nil, validationError("Invalid wallet address")
	}

	status := &models.OnboardingStatus{WalletAddress: wallet}
	user, err := s.store.FindByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return status, nil
		}
		return nil, internalError("Failed to load user", err)
	}

	status.Onboarded = user.OnboardingCompleted
	status.Role = user.Role
	status.EmailVerified = user.EmailVerified
	return status, nil
}

func (s *UserService) Get(ctx context.Context, wallet string) (*models.User, error) {
	wallet, err := utils.NormalizeWallet(wallet)
	if err != nil {
		return nil, validationError("Invalid wallet address")
	}

	user, err := s.store.FindByWallet(ctx, wallet)
	if err != nil {
		return nil, userLookupError(err)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, wallet string, profile models.Profile) (*models.User, error) {
	wallet, err := utils.NormalizeWallet(wallet)
	if err != nil {
		return nil, validationError("Invalid wallet address")
	}

	user, err := s.store.UpdateProfile(ctx, wallet, sanitizeProfile(profile))
	if err != nil {
		return nil, userLookupError(err)
	}
	return user, nil
}

func (s *UserService) UpdatePreferences(ctx context.Context, wallet string, prefs models.NotificationPreferences) (*models.User, error) {
	wallet, err := utils.NormalizeWallet(wallet)
	if err != nil {
		return nil, validationError("Invalid wallet address")
	}

	user, err := s.store.UpdatePreferences(ctx, wallet, prefs)
	if err != nil {
		return nil, userLookupError(err)
	}
	return user, nil
}

// UpdateRoleData replaces the sub-document matching the user's role
func (s *UserService) UpdateRoleData(ctx context.Context, wallet string, req models.RoleDataRequest) (*models.User, error) {
	user, err := s.Get(ctx, wallet)
	if err != nil {
		return nil, err
	}

	switch user.Role {
	case models.RoleStudent:
		if req.StudentData == nil {
			return nil, validationError("studentData is required for students")
		}
		user, err = s.store.UpdateStudentData(ctx, user.WalletAddress, req.StudentData)
	case models.RoleProvider:
		if req.ProviderData == nil {
			return nil, validationError("providerData is required for providers")
		}
		user, err = s.store.UpdateProviderData(ctx, user.WalletAddress, req.ProviderData)
	default:
		return nil, validationError("User role has no role data")
	}
	if err != nil {
		return nil, userLookupError(err)
	}
	return user, nil
}

// VerifyEmail binds an email to the user once its OTP was verified
func (s *UserService) VerifyEmail(ctx context.Context, wallet, email string) (*models.User, error) {
	wallet, err := utils.NormalizeWallet(wallet)
	if err != nil {
		return nil, validationError("Invalid wallet address")
	}
	email, err = utils.NormalizeEmail(email)
	if err != nil {
		return nil, validationError("Invalid email format")
	}

	verified, err := s.otp.IsVerified(ctx, email, wallet)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, validationError("Email has not been verified. Please verify the OTP first")
	}

	user, err := s.store.SetVerifiedEmail(ctx, wallet, email)
	if err != nil {
		return nil, userLookupError(err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error) {
	if filter.Role != "" && filter.Role != models.RoleStudent && filter.Role != models.RoleProvider {
		return nil, 0, validationError("Invalid role filter")
	}

	users, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, internalError("Failed to list users", err)
	}
	return users, total, nil
}

// Find returns the user of a wallet, or nil when it has not onboarded
func (s *UserService) Find(ctx context.Context, wallet string) (*models.User, error) {
	user, err := s.store.FindByWallet(ctx, strings.ToLower(wallet))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// RecordLogin stamps lastLoginAt; failures are only logged
func (s *UserService) RecordLogin(ctx context.Context, wallet string) {
	if err := s.store.TouchLogin(ctx, strings.ToLower(wallet), s.now()); err != nil {
		log.Warn().Err(err).Str("wallet", wallet).Msg("Failed to record login")
	}
}

func sanitizeProfile(p models.Profile) models.Profile {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Bio = utils.CleanText(p.Bio)
	p.Country = strings.TrimSpace(p.Country)
	p.Website = strings.TrimSpace(p.Website)
	return p
}

func userLookupError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return notFoundError(msgUserNotFound)
	}
	return internalError("Failed to access user", err)
}
