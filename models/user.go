// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role of an onboarded wallet
type Role string

const (
	RoleStudent  Role = "student"
	RoleProvider Role = "provider"
	// RoleAdmin is never stored; it is granted at login from ADMIN_WALLETS
	RoleAdmin Role = "admin"
	// RoleGuest is granted at login to wallets that have not onboarded
	RoleGuest Role = "guest"
)

// User model, one document per wallet
type User struct {
	ID                      primitive.ObjectID      `json:"id,omitempty" bson:"_id,omitempty"`
	WalletAddress           string                  `json:"walletAddress" bson:"walletAddress"`
	Role                    Role                    `json:"role" bson:"role"`
	Email                   string                  `json:"email,omitempty" bson:"email,omitempty"`
	EmailVerified           bool                    `json:"emailVerified" bson:"emailVerified"`
	Profile                 Profile                 `json:"profile" bson:"profile"`
	StudentData             *StudentData            `json:"studentData,omitempty" bson:"studentData,omitempty"`
	ProviderData            *ProviderData           `json:"providerData,omitempty" bson:"providerData,omitempty"`
	NotificationPreferences NotificationPreferences `json:"notificationPreferences" bson:"notificationPreferences"`
	OnboardingCompleted     bool                    `json:"onboardingCompleted" bson:"onboardingCompleted"`
	LastLoginAt             *time.Time              `json:"lastLoginAt,omitempty" bson:"lastLoginAt,omitempty"`
	CreatedAt               time.Time               `json:"createdAt" bson:"createdAt"`
	UpdatedAt               time.Time               `json:"updatedAt" bson:"updatedAt"`
}

// Profile holds the fields shared by both roles
type Profile struct {
	FullName  string `json:"fullName,omitempty" bson:"fullName,omitempty" validate:"omitempty,max=120"`
	Bio       string `json:"bio,omitempty" bson:"bio,omitempty" validate:"omitempty,max=1000"`
	AvatarCID string `json:"avatarCid,omitempty" bson:"avatarCid,omitempty" validate:"omitempty,max=100"`
	Country   string `json:"country,omitempty" bson:"country,omitempty" validate:"omitempty,max=80"`
	Website   string `json:"website,omitempty" bson:"website,omitempty" validate:"omitempty,url"`
}

// StudentData is only set for role=student
type StudentData struct {
	Institution    string  `json:"institution" bson:"institution" validate:"required,max=200"`
	Program        string  `json:"program" bson:"program" validate:"required,max=200"`
	GPA            float64 `json:"gpa,omitempty" bson:"gpa,omitempty" validate:"gte=0,lte=10"`
	GraduationYear int     `json:"graduationYear,omitempty" bson:"graduationYear,omitempty" validate:"omitempty,gte=1950,lte=2100"`
	StudentID      string  `json:"studentId,omitempty" bson:"studentId,omitempty" validate:"omitempty,max=64"`
}

// ProviderData is only set for role=provider
type ProviderData struct {
	OrganizationName string `json:"organizationName" bson:"organizationName" validate:"required,max=200"`
	OrganizationType string `json:"organizationType,omitempty" bson:"organizationType,omitempty" validate:"omitempty,oneof=university foundation company dao individual other"`
	Website          string `json:"website,omitempty" bson:"website,omitempty" validate:"omitempty,url"`
	Description      string `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=2000"`
}

// NotificationPreferences controls which emails a user receives
type NotificationPreferences struct {
	Email              bool `json:"email" bson:"email"`
	ApplicationUpdates bool `json:"applicationUpdates" bson:"applicationUpdates"`
	NewPools           bool `json:"newPools" bson:"newPools"`
	Marketing          bool `json:"marketing" bson:"marketing"`
}

// DefaultNotificationPreferences is applied at onboarding
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		Email:              true,
		ApplicationUpdates: true,
		NewPools:           true,
	}
}

// OnboardingStatus answers whether a wallet has onboarded
type OnboardingStatus struct {
	WalletAddress string `json:"walletAddress"`
	Onboarded     bool   `json:"onboarded"`
	Role          Role   `json:"role,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

// UserFilter narrows user listings
type UserFilter struct {
	Role  Role
	Page  int
	Limit int
}

// Skip returns the number of documents to skip for the page
func (f UserFilter) Skip() int64 {
	return pageSkip(f.Page, f.Limit)
}
