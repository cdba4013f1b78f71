package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CredentialTTL термін дії сесійного credential
const CredentialTTL = 7 * 24 * time.Hour

// CredentialClaims представляє claims сесійного credential
type CredentialClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// jwtService реалізація CredentialService
type jwtService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewJWTService створює новий JWT сервіс
func NewJWTService(secret, issuer string) CredentialService {
	return &jwtService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    CredentialTTL,
	}
}

// Mint підписує credential з internal account ID
func (j *jwtService) Mint(accountID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.ttl)

	claims := CredentialClaims{
		UserID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign credential: %w", err)
	}

	logrus.WithField("account_id", accountID).Debug("Session credential minted")

	return signed, expiresAt, nil
}

// Parse валідує credential і повертає claims
func (j *jwtService) Parse(credential string) (*CredentialClaims, error) {
	token, err := jwt.ParseWithClaims(credential, &CredentialClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithIssuer(j.issuer))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CredentialClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid credential claims")
}
