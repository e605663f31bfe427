package auth

import (
	"net/http"
	"strings"
)

// ExtractAPIKey extracts API key from Authorization header
// Returns the API key or error if missing/invalid format
func ExtractAPIKey(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAPIKey
	}

	// Expect "Bearer <api_key>" format
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrMalformedAPIKey
	}

	return parts[1], nil
}
