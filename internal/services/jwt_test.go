package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_MintAndParse(t *testing.T) {
	service := NewJWTService("secret", "airtable-connect")

	before := time.Now()
	credential, expiresAt, err := service.Mint("account-1")
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(7*24*time.Hour), expiresAt, 2*time.Second)

	claims, err := service.Parse(credential)
	require.NoError(t, err)
	assert.Equal(t, "account-1", claims.UserID)
	assert.Equal(t, "account-1", claims.Subject)
	assert.Equal(t, "airtable-connect", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_ParseRejectsForeignCredentials(t *testing.T) {
	service := NewJWTService("secret", "airtable-connect")

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "different secret",
			token: func(t *testing.T) string {
				credential, _, err := NewJWTService("other-secret", "airtable-connect").Mint("account-1")
				require.NoError(t, err)
				return credential
			},
		},
		{
			name: "different issuer",
			token: func(t *testing.T) string {
				credential, _, err := NewJWTService("secret", "someone-else").Mint("account-1")
				require.NoError(t, err)
				return credential
			},
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				past := time.Now().Add(-8 * 24 * time.Hour)
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, CredentialClaims{
					UserID: "account-1",
					RegisteredClaims: jwt.RegisteredClaims{
						Issuer:    "airtable-connect",
						Subject:   "account-1",
						IssuedAt:  jwt.NewNumericDate(past),
						ExpiresAt: jwt.NewNumericDate(past.Add(CredentialTTL)),
					},
				})
				signed, err := token.SignedString([]byte("secret"))
				require.NoError(t, err)
				return signed
			},
		},
		{
			name:  "garbage",
			token: func(*testing.T) string { return "not-a-jwt" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Parse(tt.token(t))
			assert.Error(t, err)
		})
	}
}
