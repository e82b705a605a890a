package security

import (
	"context"
	"crypto/ecdsa"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/scholarfund_backend/models"
)

func sign(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

func TestVerifyWalletSignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	wallet := crypto.PubkeyToAddress(key.PublicKey).Hex()
	message := LoginMessage(wallet, "nonce-1")

	assert.Contains(t, message, strings.ToLower(wallet))

	sig := sign(t, key, message)
	recovered, err := RecoverAddress(message, sig)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(wallet), recovered)

	assert.NoError(t, VerifyWalletSignature(strings.ToUpper(wallet[:2])+wallet[2:], message, sig))
	assert.ErrorIs(t, VerifyWalletSignature("0x1111111111111111111111111111111111111111", message, sig), ErrSignatureMismatch)

	// A different message recovers a different address
	assert.Error(t, VerifyWalletSignature(wallet, LoginMessage(wallet, "nonce-2"), sig))
}

func TestRecoverAddressRejectsMalformedSignatures(t *testing.T) {
	_, err := RecoverAddress("msg", "not-hex")
	assert.Error(t, err)

	_, err = RecoverAddress("msg", "0x1234")
	assert.Error(t, err)
}

func TestMemoryNonceStore(t *testing.T) {
	store := NewMemoryNonceStore()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := store.Consume(ctx, "0xabc")
	assert.ErrorIs(t, err, ErrNonceNotFound)

	require.NoError(t, store.Save(ctx, "0xABC", "first", time.Minute))
	require.NoError(t, store.Save(ctx, "0xabc", "second", time.Minute))

	nonce, err := store.Consume(ctx, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "second", nonce)

	_, err = store.Consume(ctx, "0xabc")
	assert.ErrorIs(t, err, ErrNonceNotFound)

	require.NoError(t, store.Save(ctx, "0xabc", "late", time.Minute))
	now = now.Add(2 * time.Minute)
	_, err = store.Consume(ctx, "0xabc")
	assert.ErrorIs(t, err, ErrNonceNotFound)
}

func TestSessionToken(t *testing.T) {
	now := time.Now()
	token, expiresAt, err := GenerateToken("secret", "0xabc", models.RoleStudent, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(TokenTTL), expiresAt)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", claims.WalletAddress)
	assert.Equal(t, models.RoleStudent, claims.Role)

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)

	expired, _, err := GenerateToken("secret", "0xabc", models.RoleStudent, now.Add(-2*TokenTTL))
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.Error(t, err)

	_, _, err = GenerateToken("", "0xabc", models.RoleStudent, now)
	assert.Error(t, err)
}

func TestGenerateNonce(t *testing.T) {
	a, err := GenerateNonce()
	require.NoError(t, err)
	b, err := GenerateNonce()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 32)
}

func TestValidateContentType(t *testing.T) {
	assert.True(t, ValidateContentType("application/json; charset=utf-8"))
	assert.True(t, ValidateContentType("multipart/form-data; boundary=x"))
	assert.False(t, ValidateContentType("text/plain"))
	assert.False(t, ValidateContentType(""))
}

func TestSanitizeHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer x")
	h.Set("Cookie", "a=b")
	h.Set("X-Request-ID", "abc")

	clean := SanitizeHeaders(h)
	assert.Empty(t, clean.Get("Authorization"))
	assert.Empty(t, clean.Get("Cookie"))
	assert.Equal(t, "abc", clean.Get("X-Request-ID"))
	assert.Equal(t, "Bearer x", h.Get("Authorization"))
}
