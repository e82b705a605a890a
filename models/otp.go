package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxOTPAttempts is the number of wrong codes an OTP tolerates
const MaxOTPAttempts = 3

// OTP is an email verification code tied to a wallet. Mongo removes it once
// ExpiresAt passes (TTL index).
type OTP struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email         string             `json:"email" bson:"email"`
	WalletAddress string             `json:"walletAddress" bson:"walletAddress"`
	CodeHash      string             `json:"-" bson:"codeHash"`
	Attempts      int                `json:"attempts" bson:"attempts"`
	Verified      bool               `json:"verified" bson:"verified"`
	ExpiresAt     time.Time          `json:"expiresAt" bson:"expiresAt"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// Expired reports whether the OTP is past its expiry at now
func (o *OTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// RemainingAttempts returns how many wrong codes are still allowed
func (o *OTP) RemainingAttempts() int {
	if o.Attempts >= MaxOTPAttempts {
		return 0
	}
	return MaxOTPAttempts - o.Attempts
}
