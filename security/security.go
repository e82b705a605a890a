package security

import (
	"crypto/rand"
	"encoding/base64"
	"mime"
	"net/http"
)

// GenerateNonce generates a secure random token for wallet login
func GenerateNonce() (string, error) {
	b := make([]byte, 24)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidateContentType ensures the request has one of the accepted content types
func ValidateContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	validTypes := map[string]bool{
		"application/json":                  true,
		"application/x-www-form-urlencoded": true,
		"multipart/form-data":               true,
	}
	return validTypes[mediaType]
}

// SanitizeHeaders returns a copy of headers without credentials
func SanitizeHeaders(headers http.Header) http.Header {
	clean := headers.Clone()
	sensitiveHeaders := []string{
		"Authorization",
		"Cookie",
		"Set-Cookie",
		"X-CSRF-Token",
	}

	for _, header := range sensitiveHeaders {
		clean.Del(header)
	}
	return clean
}
