// models/application.go
package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApplicationStatus is the review state of a scholarship application
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusVerified ApplicationStatus = "verified"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
	StatusPaid     ApplicationStatus = "paid"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []ApplicationStatus{StatusPending, StatusVerified, StatusApproved, StatusRejected, StatusPaid}

// Valid reports whether s is a known status
func (s ApplicationStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Application is one scholarship submission for a (wallet, pool) pair
type Application struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	WalletAddress string             `json:"walletAddress" bson:"walletAddress"`
	Email         string             `json:"email" bson:"email"`
	PoolID        string             `json:"poolId" bson:"poolId"`
	PoolAddress   string             `json:"poolAddress" bson:"poolAddress"`

	FullName       string  `json:"fullName" bson:"fullName"`
	Institution    string  `json:"institution" bson:"institution"`
	Program        string  `json:"program" bson:"program"`
	FieldOfStudy   string  `json:"fieldOfStudy,omitempty" bson:"fieldOfStudy,omitempty"`
	GPA            float64 `json:"gpa" bson:"gpa"`
	GraduationYear int     `json:"graduationYear,omitempty" bson:"graduationYear,omitempty"`
	Country        string  `json:"country,omitempty" bson:"country,omitempty"`
	Statement      string  `json:"statement,omitempty" bson:"statement,omitempty"`
	DocumentName   string  `json:"documentName,omitempty" bson:"documentName,omitempty"`

	DocumentCID string `json:"documentCid,omitempty" bson:"documentCid,omitempty"`
	IPFSHash    string `json:"ipfsHash" bson:"ipfsHash"`

	VerificationToken string     `json:"-" bson:"verificationToken,omitempty"`
	EmailVerified     bool       `json:"emailVerified" bson:"emailVerified"`
	VerifiedAt        *time.Time `json:"verifiedAt,omitempty" bson:"verifiedAt,omitempty"`

	Status ApplicationStatus `json:"status" bson:"status"`

	ReviewedBy  string     `json:"reviewedBy,omitempty" bson:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`
	ReviewNotes string     `json:"reviewNotes,omitempty" bson:"reviewNotes,omitempty"`

	TransactionHash string     `json:"transactionHash,omitempty" bson:"transactionHash,omitempty"`
	Amount          string     `json:"amount,omitempty" bson:"amount,omitempty"`
	PaidAt          *time.Time `json:"paidAt,omitempty" bson:"paidAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ApplicationMetadata is the JSON blob pinned to the content store on submission
type ApplicationMetadata struct {
	WalletAddress  string    `json:"walletAddress"`
	PoolID         string    `json:"poolId"`
	PoolAddress    string    `json:"poolAddress"`
	FullName       string    `json:"fullName"`
	Institution    string    `json:"institution"`
	Program        string    `json:"program"`
	FieldOfStudy   string    `json:"fieldOfStudy,omitempty"`
	GPA            float64   `json:"gpa"`
	GraduationYear int       `json:"graduationYear,omitempty"`
	Country        string    `json:"country,omitempty"`
	Statement      string    `json:"statement,omitempty"`
	DocumentCID    string    `json:"documentCid,omitempty"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// ApplicationFilter narrows application listings
type ApplicationFilter struct {
	WalletAddress string
	PoolAddress   string
	Status        ApplicationStatus
	Page          int
	Limit         int
}

// Skip returns the number of documents to skip for the page
func (f ApplicationFilter) Skip() int64 {
	return pageSkip(f.Page, f.Limit)
}

// pageSkip saturates instead of overflowing, so an absurd page is simply
// past the end of the collection
func pageSkip(page, limit int) int64 {
	if page <= 1 || limit <= 0 {
		return 0
	}
	p, l := int64(page-1), int64(limit)
	if p > math.MaxInt64/l {
		return math.MaxInt64
	}
	return p * l
}

// BatchFailure records why one id in a batch was not approved
type BatchFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BatchApproveResult reports a batch approval; partial failure is expected
type BatchApproveResult struct {
	Approved []string       `json:"approved"`
	Failed   []BatchFailure `json:"failed"`
}

// ApplicationStats counts applications per status
type ApplicationStats struct {
	Total    int64                       `json:"total"`
	ByStatus map[ApplicationStatus]int64 `json:"byStatus"`
}

// Transaction is the payout view of a paid application
type Transaction struct {
	ApplicationID   string    `json:"applicationId"`
	WalletAddress   string    `json:"walletAddress"`
	PoolID          string    `json:"poolId"`
	PoolAddress     string    `json:"poolAddress"`
	TransactionHash string    `json:"transactionHash,omitempty"`
	Amount          string    `json:"amount,omitempty"`
	PaidAt          time.Time `json:"paidAt"`
}

// ToTransaction builds the payout view of a paid application
func (a *Application) ToTransaction() Transaction {
	tx := Transaction{
		ApplicationID:   a.ID.Hex(),
		WalletAddress:   a.WalletAddress,
		PoolID:          a.PoolID,
		PoolAddress:     a.PoolAddress,
		TransactionHash: a.TransactionHash,
		Amount:          a.Amount,
	}
	if a.PaidAt != nil {
		tx.PaidAt = *a.PaidAt
	}
	return tx
}
