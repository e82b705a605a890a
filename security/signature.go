package security

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrSignatureMismatch means the signature was valid but made by another wallet
var ErrSignatureMismatch = errors.New("signature does not match wallet address")

// LoginMessage is the text a wallet signs with personal_sign to log in
func LoginMessage(wallet, nonce string) string {
	return fmt.Sprintf("Sign this message to authenticate with ScholarFund.\n\nWallet: %s\nNonce: %s", strings.ToLower(wallet), nonce)
}

// RecoverAddress returns the lower-cased address that produced an EIP-191
// personal_sign signature over message.
func RecoverAddress(message, signature string) (string, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return "", fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("invalid signature length %d", len(sig))
	}

	// Wallets return v as 27/28, go-ethereum expects 0/1
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", fmt.Errorf("failed to recover public key: %w", err)
	}

	return strings.ToLower(crypto.PubkeyToAddress(*pub).Hex()), nil
}

// VerifyWalletSignature checks that wallet signed message
func VerifyWalletSignature(wallet, message, signature string) error {
	recovered, err := RecoverAddress(message, signature)
	if err != nil {
		return err
	}
	if recovered != strings.ToLower(wallet) {
		return ErrSignatureMismatch
	}
	return nil
}
