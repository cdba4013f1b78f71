package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/oauth2"
)

// PKCE пара verifier/challenge для одного authorization запиту
type PKCE struct {
	Verifier  string
	Challenge string
}

// NewPKCE генерує verifier з 32 випадкових байт і S256 challenge для нього
func NewPKCE() PKCE {
	verifier := oauth2.GenerateVerifier()

	return PKCE{
		Verifier:  verifier,
		Challenge: oauth2.S256ChallengeFromVerifier(verifier),
	}
}

// GenerateState генерує новий state параметр для CSRF захисту
func GenerateState() (string, error) {
	// Генеруємо криптографічно стійкий випадковий state
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random state: %w", err)
	}

	return hex.EncodeToString(randomBytes), nil
}

// ValidateState порівнює state з callback зі збереженим у сесії
func ValidateState(expected, actual string) bool {
	if expected == "" || actual == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}
