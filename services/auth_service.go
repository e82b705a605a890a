package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/security"
	"github.com/HSouheill/scholarfund_backend/utils"
)

// NonceTTL is how long a wallet has to sign its login message
const NonceTTL = 5 * time.Minute

// AdminChecker reports whether a wallet holds the admin role
type AdminChecker func(wallet string) bool

// AuthService logs wallets in with a signed nonce and issues session tokens
type AuthService struct {
	nonces  security.NonceStore
	users   *UserService
	secret  string
	isAdmin AdminChecker
	now     func() time.Time
}

func NewAuthService(nonces security.NonceStore, users *UserService, secret string, isAdmin AdminChecker) *AuthService {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &AuthService{
		nonces:  nonces,
		users:   users,
		secret:  secret,
		isAdmin: isAdmin,
		now:     time.Now,
	}
}

// Nonce issues a fresh single-use nonce and the message the wallet must sign
func (s *AuthService) Nonce(ctx context.Context, wallet string) (*models.NonceResponse, error) {
	wallet, err := utils.NormalizeWallet(wallet)
	if err != nil {
		return nil, validationError("Invalid wallet address")
	}

	nonce, err := security.GenerateNonce()
	if err != nil {
		return nil, internalError("Failed to generate nonce", err)
	}
	if err := s.nonces.Save(ctx, wallet, nonce, NonceTTL); err != nil {
		return nil, internalError("Failed to store nonce", err)
	}

	return &models.NonceResponse{
		WalletAddress: wallet,
		Nonce:         nonce,
		Message:       security.LoginMessage(wallet, nonce),
		ExpiresAt:     s.now().Add(NonceTTL),
	}, nil
}

// Login checks the signature over the pending nonce and returns a session token.
// The nonce is consumed whether or not the signature matches.
func (s *AuthService) Login(ctx context.Context, wallet, signature string) (*models.LoginResponse, error) {
	wallet, err := utils.NormalizeWallet(wallet)
	if err != nil {
		return nil, validationError("Invalid wallet address")
	}

	nonce, err := s.nonces.Consume(ctx, wallet)
	if err != nil {
		if errors.Is(err, security.ErrNonceNotFound) {
			return nil, newError(KindUnauthorized, "Nonce not found or expired. Please request a new one")
		}
		return nil, internalError("Failed to load nonce", err)
	}

	if err := security.VerifyWalletSignature(wallet, security.LoginMessage(wallet, nonce), signature); err != nil {
		log.Warn().Err(err).Str("wallet", wallet).Msg("Wallet signature rejected")
		return nil, newError(KindUnauthorized, "Invalid signature")
	}

	user, err := s.users.Find(ctx, wallet)
	if err != nil {
		return nil, internalError("Failed to load user", err)
	}

	role := s.roleOf(wallet, user)
	token, expiresAt, err := security.GenerateToken(s.secret, wallet, role, s.now())
	if err != nil {
		return nil, internalError("Failed to generate token", err)
	}

	if user != nil {
		s.users.RecordLogin(ctx, wallet)
	}

	log.Info().Str("wallet", wallet).Str("role", string(role)).Msg("Wallet logged in")

	return &models.LoginResponse{
		Token:         token,
		ExpiresAt:     expiresAt,
		WalletAddress: wallet,
		Role:          role,
		User:          user,
	}, nil
}

// Me describes the caller of an authenticated request
func (s *AuthService) Me(ctx context.Context, claims *security.Claims) (*models.SessionInfo, error) {
	user, err := s.users.Find(ctx, claims.WalletAddress)
	if err != nil {
		return nil, internalError("Failed to load user", err)
	}
	return &models.SessionInfo{
		WalletAddress: claims.WalletAddress,
		Role:          claims.Role,
		User:          user,
	}, nil
}

func (s *AuthService) roleOf(wallet string, user *models.User) models.Role {
	if s.isAdmin(wallet) {
		return models.RoleAdmin
	}
	if user != nil && user.Role != "" {
		return user.Role
	}
	return models.RoleGuest
}
