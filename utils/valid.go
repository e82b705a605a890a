// utils/valid.go
package utils

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// MaxDocumentSize is the largest accepted application attachment (10MB)
const MaxDocumentSize = 10 * 1024 * 1024

var (
	walletRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	scriptRegex = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)

	allowedDocumentExts = map[string]bool{
		".pdf":  true,
		".doc":  true,
		".docx": true,
		".jpg":  true,
		".jpeg": true,
		".png":  true,
	}
)

// CleanText trims free text and drops script blocks and control characters.
// It does not HTML-escape: text is stored as typed and escaped when rendered.
func CleanText(input string) string {
	input = strings.TrimSpace(input)
	input = scriptRegex.ReplaceAllString(input, "")

	// Keep line breaks of free text fields
	input = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)

	return strings.TrimSpace(input)
}

// NormalizeEmail trims, lower-cases and validates an email address
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return "", errors.New("invalid email format")
	}
	return email, nil
}

// IsValidWallet reports whether s is a 0x-prefixed 20 byte hex address
func IsValidWallet(s string) bool {
	return walletRegex.MatchString(strings.TrimSpace(s))
}

// NormalizeWallet validates and lower-cases a wallet or contract address
func NormalizeWallet(wallet string) (string, error) {
	if !IsValidWallet(wallet) {
		return "", errors.New("invalid wallet address")
	}
	return strings.ToLower(strings.TrimSpace(wallet)), nil
}

// ValidateDocument validates an application attachment's size and type
func ValidateDocument(filename string, size int64) error {
	if size == 0 {
		return errors.New("file is empty")
	}
	if size > MaxDocumentSize {
		return errors.New("file too large, maximum size is 10MB")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedDocumentExts[ext] {
		return errors.New("invalid file type, allowed: pdf, doc, docx, jpg, jpeg, png")
	}

	return nil
}

// CleanFilename removes path components and unsafe characters from a filename
func CleanFilename(filename string) string {
	filename = filepath.Base(filename)
	reg := regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	return reg.ReplaceAllString(filename, "")
}

// MaskEmail partially masks an email address for privacy
func MaskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" {
		return email
	}

	name := parts[0]
	domain := parts[1]

	if len(name) <= 2 {
		return name[:1] + "***@" + domain
	}

	return name[:2] + strings.Repeat("*", len(name)-2) + "@" + domain
}
