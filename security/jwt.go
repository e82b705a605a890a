package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/HSouheill/scholarfund_backend/models"
)

// TokenTTL is the lifetime of a session token
const TokenTTL = 24 * time.Hour

// Claims carried by session tokens
type Claims struct {
	WalletAddress string      `json:"walletAddress"`
	Role          models.Role `json:"role"`
	jwt.StandardClaims
}

// GenerateToken signs an HS256 session token for the wallet
func GenerateToken(secret, wallet string, role models.Role, now time.Time) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("JWT secret is empty")
	}

	expiresAt := now.Add(TokenTTL)
	claims := &Claims{
		WalletAddress: wallet,
		Role:          role,
		StandardClaims: jwt.StandardClaims{
			Subject:   wallet,
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken validates a session token and returns its claims
func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
