// utils/otp.go
package utils

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrTooManyOTPRequests is returned once the send budget of an email is spent
var ErrTooManyOTPRequests = errors.New("too many OTP requests")

// GenerateOTP generates a random numeric code of the specified length
func GenerateOTP(length int) (string, error) {
	const digits = "0123456789"
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		result[i] = digits[num.Int64()]
	}
	return string(result), nil
}

// GenerateToken returns n random bytes hex encoded
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// OTPThrottle limits how many codes can be sent to one email per window.
// A nil Redis client disables the limit.
type OTPThrottle struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

// NewOTPThrottle creates a throttle allowing limit sends per window
func NewOTPThrottle(client *redis.Client, limit int64, window time.Duration) *OTPThrottle {
	return &OTPThrottle{redis: client, limit: limit, window: window}
}

// Allow counts one send for key and fails once the limit is exceeded
func (t *OTPThrottle) Allow(ctx context.Context, key string) error {
	if t == nil || t.redis == nil {
		return nil
	}

	redisKey := "otp_sends:" + key
	sends, err := t.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return err
	}

	// Set expiry on the first send of the window
	if sends == 1 {
		t.redis.Expire(ctx, redisKey, t.window)
	}

	if sends > t.limit {
		return ErrTooManyOTPRequests
	}

	return nil
}
