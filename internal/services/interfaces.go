package services

import (
	"context"
	"time"

	"airtable-connect/internal/models"
)

// AuthService інтерфейс для OAuth2 Authorization Code + PKCE flow
type AuthService interface {
	Begin(ctx context.Context, session *Session) (*models.AuthorizationRequest, error)
	Complete(ctx context.Context, session *Session, req models.CallbackRequest) (*models.CallbackResult, error)
}

// AccountService інтерфейс для роботи з linked accounts
type AccountService interface {
	Upsert(ctx context.Context, account *LinkedAccount) (*LinkedAccount, error)
	GetByID(ctx context.Context, id string) (*LinkedAccount, error)
	GetByProviderAccountID(ctx context.Context, providerAccountID string) (*LinkedAccount, error)
}

// ProviderService інтерфейс для роботи з OAuth провайдером
type ProviderService interface {
	AuthCodeURL(state, verifier string) string
	ExchangeCode(ctx context.Context, code, verifier string) (*models.Token, error)
	FetchIdentity(ctx context.Context, accessToken string) (*models.ProviderIdentity, error)
}

// CredentialService інтерфейс для випуску сесійних credential
type CredentialService interface {
	Mint(accountID string) (string, time.Time, error)
	Parse(credential string) (*CredentialClaims, error)
}

// LinkedAccount представляє акаунт провайдера, прив'язаний до нашої системи
type LinkedAccount struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	ProviderAccountID string    `gorm:"not null;size:255" json:"provider_account_id"`
	Profile           string    `gorm:"type:jsonb" json:"profile,omitempty"`
	AccessToken       string    `gorm:"not null" json:"-"`
	RefreshToken      string    `json:"-"`
	TokenExpiry       time.Time `json:"token_expiry"`
	LastLoginAt       time.Time `json:"last_login_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName явно задає ім'я таблиці для GORM
func (LinkedAccount) TableName() string {
	return "linked_accounts"
}
