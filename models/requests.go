package models

// SubmitApplicationRequest is bound from JSON or from the multipart form
type SubmitApplicationRequest struct {
	WalletAddress  string  `json:"walletAddress" form:"walletAddress" validate:"required,eth_addr"`
	Email          string  `json:"email" form:"email" validate:"required,email,max=254"`
	PoolID         string  `json:"poolId" form:"poolId" validate:"required,max=100"`
	PoolAddress    string  `json:"poolAddress" form:"poolAddress" validate:"required,eth_addr"`
	FullName       string  `json:"fullName" form:"fullName" validate:"required,max=120"`
	Institution    string  `json:"institution" form:"institution" validate:"required,max=200"`
	Program        string  `json:"program" form:"program" validate:"required,max=200"`
	FieldOfStudy   string  `json:"fieldOfStudy" form:"fieldOfStudy" validate:"omitempty,max=200"`
	GPA            float64 `json:"gpa" form:"gpa" validate:"gte=0,lte=10"`
	GraduationYear int     `json:"graduationYear" form:"graduationYear" validate:"omitempty,gte=1950,lte=2100"`
	Country        string  `json:"country" form:"country" validate:"omitempty,max=80"`
	Statement      string  `json:"statement" form:"statement" validate:"omitempty,max=5000"`
}

// UploadedFile is a document attached to a submission
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// VerifyApplicationEmailRequest carries the emailed token
type VerifyApplicationEmailRequest struct {
	Token string `json:"token" validate:"required,hexadecimal,len=64"`
}

// ReviewRequest is the body of approve and reject
type ReviewRequest struct {
	AdminAddress string `json:"adminAddress" validate:"omitempty,eth_addr"`
	Notes        string `json:"notes" validate:"omitempty,max=2000"`
}

// MarkPaidRequest records the payout transaction
type MarkPaidRequest struct {
	TransactionHash string `json:"transactionHash" validate:"omitempty,startswith=0x,len=66,hexadecimal"`
	Amount          string `json:"amount" validate:"omitempty,numeric"`
}

// BatchApproveRequest approves many applications at once
type BatchApproveRequest struct {
	IDs          []string `json:"ids" validate:"required,min=1,max=100,dive,required"`
	AdminAddress string   `json:"adminAddress" validate:"omitempty,eth_addr"`
	Notes        string   `json:"notes" validate:"omitempty,max=2000"`
}

// RecordTransactionRequest marks an application paid from the transactions API
type RecordTransactionRequest struct {
	ApplicationID   string `json:"applicationId" validate:"required,objectid"`
	TransactionHash string `json:"transactionHash" validate:"required,startswith=0x,len=66,hexadecimal"`
	Amount          string `json:"amount" validate:"omitempty,numeric"`
}

// OnboardingRequest creates a user for a wallet
type OnboardingRequest struct {
	WalletAddress string        `json:"walletAddress" validate:"required,eth_addr"`
	Role          Role          `json:"role" validate:"required,oneof=student provider"`
	Email         string        `json:"email" validate:"omitempty,email,max=254"`
	Profile       Profile       `json:"profile"`
	StudentData   *StudentData  `json:"studentData,omitempty"`
	ProviderData  *ProviderData `json:"providerData,omitempty"`
}

// RoleDataRequest replaces the role-specific sub-document
type RoleDataRequest struct {
	StudentData  *StudentData  `json:"studentData,omitempty"`
	ProviderData *ProviderData `json:"providerData,omitempty"`
}

// UserEmailRequest binds an OTP-verified email to a user
type UserEmailRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// SendOTPRequest asks for a code to be emailed
type SendOTPRequest struct {
	Email         string `json:"email" validate:"required,email,max=254"`
	WalletAddress string `json:"walletAddress" validate:"required,eth_addr"`
}

// VerifyOTPRequest checks a code
type VerifyOTPRequest struct {
	Email         string `json:"email" validate:"required,email,max=254"`
	WalletAddress string `json:"walletAddress" validate:"required,eth_addr"`
	OTP           string `json:"otp" validate:"required,len=6,numeric"`
}
