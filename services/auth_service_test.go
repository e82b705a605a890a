package services

import (
	"context"
	"crypto/ecdsa"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/scholarfund_backend/models"
	"github.com/HSouheill/scholarfund_backend/security"
)

const testSecret = "test-secret"

// personalSign signs message the way browser wallets do
func personalSign(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

func newWallet(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func newAuthFixture(admins ...string) (*AuthService, *UserService, *memUserStore) {
	store := newMemUserStore()
	users := NewUserService(store, staticVerifier(false))
	isAdmin := func(wallet string) bool {
		for _, a := range admins {
			if strings.EqualFold(a, wallet) {
				return true
			}
		}
		return false
	}
	return NewAuthService(security.NewMemoryNonceStore(), users, testSecret, isAdmin), users, store
}

func TestWalletLoginAsGuest(t *testing.T) {
	auth, _, _ := newAuthFixture()
	ctx := context.Background()
	key, wallet := newWallet(t)

	nonce, err := auth.Nonce(ctx, wallet)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(wallet), nonce.WalletAddress)
	assert.Contains(t, nonce.Message, nonce.Nonce)

	login, err := auth.Login(ctx, wallet, personalSign(t, key, nonce.Message))
	require.NoError(t, err)
	assert.Equal(t, models.RoleGuest, login.Role)
	assert.Nil(t, login.User)

	claims, err := security.ParseToken(testSecret, login.Token)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(wallet), claims.WalletAddress)
	assert.Equal(t, models.RoleGuest, claims.Role)
}

func TestWalletLoginUsesStoredRole(t *testing.T) {
	auth, users, store := newAuthFixture()
	ctx := context.Background()
	key, wallet := newWallet(t)

	_, err := users.Onboard(ctx, models.OnboardingRequest{
		WalletAddress: wallet,
		Role:          models.RoleProvider,
		ProviderData:  &models.ProviderData{OrganizationName: "Grants DAO"},
	})
	require.NoError(t, err)

	nonce, err := auth.Nonce(ctx, wallet)
	require.NoError(t, err)
	login, err := auth.Login(ctx, wallet, personalSign(t, key, nonce.Message))
	require.NoError(t, err)
	assert.Equal(t, models.RoleProvider, login.Role)
	require.NotNil(t, login.User)

	stored, err := store.FindByWallet(ctx, strings.ToLower(wallet))
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)

	claims, err := security.ParseToken(testSecret, login.Token)
	require.NoError(t, err)
	me, err := auth.Me(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, models.RoleProvider, me.Role)
	assert.NotNil(t, me.User)
}

func TestWalletLoginAsAdmin(t *testing.T) {
	key, wallet := newWallet(t)
	auth, _, _ := newAuthFixture(strings.ToLower(wallet))
	ctx := context.Background()

	nonce, err := auth.Nonce(ctx, wallet)
	require.NoError(t, err)
	login, err := auth.Login(ctx, wallet, personalSign(t, key, nonce.Message))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, login.Role)
}

func TestWalletLoginRejectsBadSignatures(t *testing.T) {
	auth, _, _ := newAuthFixture()
	ctx := context.Background()
	_, wallet := newWallet(t)
	otherKey, _ := newWallet(t)

	_, err := auth.Login(ctx, wallet, "0x00")
	assert.True(t, IsKind(err, KindUnauthorized))

	nonce, err := auth.Nonce(ctx, wallet)
	require.NoError(t, err)

	_, err = auth.Login(ctx, wallet, personalSign(t, otherKey, nonce.Message))
	assert.True(t, IsKind(err, KindUnauthorized))
	assert.Equal(t, "Invalid signature", Message(err))

	// The failed attempt consumed the nonce
	_, err = auth.Login(ctx, wallet, personalSign(t, otherKey, nonce.Message))
	assert.True(t, IsKind(err, KindUnauthorized))
	assert.Contains(t, Message(err), "Nonce not found")
}

func TestWalletLoginNonceIsSingleUse(t *testing.T) {
	auth, _, _ := newAuthFixture()
	ctx := context.Background()
	key, wallet := newWallet(t)

	nonce, err := auth.Nonce(ctx, wallet)
	require.NoError(t, err)
	sig := personalSign(t, key, nonce.Message)

	_, err = auth.Login(ctx, wallet, sig)
	require.NoError(t, err)

	_, err = auth.Login(ctx, wallet, sig)
	assert.True(t, IsKind(err, KindUnauthorized))
}
