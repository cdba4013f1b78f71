package services

import "errors"

// Помилки OAuth callback. Перші три - помилки запиту (400), решта - серверні (500).
var (
	ErrInvalidState        = errors.New("invalid state parameter")
	ErrMissingVerifier     = errors.New("missing pkce verifier")
	ErrMissingCode         = errors.New("missing authorization code")
	ErrTokenExchangeFailed = errors.New("token exchange failed")
	ErrCallbackFailed      = errors.New("oauth callback failed")
)

// ErrAccountNotFound повертається коли linked account відсутній
var ErrAccountNotFound = errors.New("linked account not found")

// mask обрізає секрет для логування
func mask(value string) string {
	if len(value) <= 12 {
		return "***"
	}
	return value[:6] + "..."
}
