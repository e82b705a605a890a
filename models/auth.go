// models/auth.go

package models

import "time"

// NonceResponse carries the message a wallet must sign to log in
type NonceResponse struct {
	WalletAddress string    `json:"walletAddress"`
	Nonce         string    `json:"nonce"`
	Message       string    `json:"message"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// WalletLoginRequest is the signed nonce sent back by the wallet
type WalletLoginRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required,eth_addr"`
	Signature     string `json:"signature" validate:"required,hexadecimal"`
}

// LoginResponse is returned after a successful signature check
type LoginResponse struct {
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expiresAt"`
	WalletAddress string    `json:"walletAddress"`
	Role          Role      `json:"role"`
	User          *User     `json:"user,omitempty"`
}

// SessionInfo describes the caller of an authenticated request
type SessionInfo struct {
	WalletAddress string `json:"walletAddress"`
	Role          Role   `json:"role"`
	User          *User  `json:"user,omitempty"`
}
