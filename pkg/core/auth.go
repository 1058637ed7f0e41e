package core

import (
	"crypto/subtle"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// SecureCompareString performs constant-time string comparison
func SecureCompareString(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ValidateAuthToken rejects empty, short and obviously weak tokens
func ValidateAuthToken(token string) error {
	if token == "" {
		return NewError(ErrInvalidParameter, "Authentication token cannot be empty").
			WithGuidance("Provide a valid authentication token for security.")
	}

	if len(token) < 16 {
		return NewError(ErrInvalidParameter, "Authentication token is too short").
			WithGuidance("Use a token with at least 16 characters for security.")
	}

	weakTokens := []string{
		"password", "secret", "token", "admin", "test", "default",
		"12345", "123456", "password123", "secret123", "admin123",
	}

	lowerToken := strings.ToLower(token)
	for _, weak := range weakTokens {
		if strings.Contains(lowerToken, weak) {
			return NewError(ErrInvalidParameter, "Authentication token appears to be weak").
				WithGuidance("Use a randomly generated, strong authentication token.")
		}
	}

	return nil
}

// HashPassword returns a bcrypt hash suitable for the password half of a
// basic auth credential ("user:<hash>").
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// AuthResult represents the result of authentication
type AuthResult struct {
	Authorized bool
	Error      string
	Duration   time.Duration
}

// AuthenticateBearer performs bearer token authentication
func AuthenticateBearer(authHeader, expectedToken string) AuthResult {
	start := time.Now()

	if authHeader == "" {
		return AuthResult{Error: "Missing Authorization header", Duration: time.Since(start)}
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || scheme != "Bearer" {
		return AuthResult{Error: "Invalid Authorization header format", Duration: time.Since(start)}
	}

	if expectedToken == "" || !SecureCompareString(token, expectedToken) {
		return AuthResult{Error: "Invalid bearer token", Duration: time.Since(start)}
	}

	return AuthResult{Authorized: true, Duration: time.Since(start)}
}

// AuthenticateBasic checks basic credentials against expected, given as
// "user:password" or "user:<bcrypt hash>".
func AuthenticateBasic(username, password, expected string) AuthResult {
	start := time.Now()

	if username == "" || password == "" {
		return AuthResult{Error: "Missing basic auth credentials", Duration: time.Since(start)}
	}

	wantUser, wantSecret, ok := strings.Cut(expected, ":")
	if !ok || wantUser == "" || wantSecret == "" {
		return AuthResult{Error: "Basic auth is not configured", Duration: time.Since(start)}
	}

	userOK := SecureCompareString(username, wantUser)
	var passOK bool
	if isBcryptHash(wantSecret) {
		passOK = bcrypt.CompareHashAndPassword([]byte(wantSecret), []byte(password)) == nil
	} else {
		passOK = SecureCompareString(password, wantSecret)
	}

	if !userOK || !passOK {
		return AuthResult{Error: "Invalid basic auth credentials", Duration: time.Since(start)}
	}

	return AuthResult{Authorized: true, Duration: time.Since(start)}
}
