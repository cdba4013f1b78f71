package models

import "time"

// Token представляє токени, отримані від провайдера
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scope        string    `json:"scope,omitempty"`
}

// CallbackRequest представляє параметри callback запиту від провайдера
type CallbackRequest struct {
	Code             string `form:"code"`
	State            string `form:"state"`
	Error            string `form:"error"`
	ErrorDescription string `form:"error_description"`
}

// AuthorizationRequest представляє підготовлений редірект на провайдера
type AuthorizationRequest struct {
	AuthURL       string `json:"auth_url"`
	State         string `json:"-"`
	CodeChallenge string `json:"code_challenge"`
}

// CallbackResult представляє результат успішного завершення OAuth flow
type CallbackResult struct {
	AccountID           string    `json:"account_id"`
	ProviderAccountID   string    `json:"provider_account_id"`
	Credential          string    `json:"-"`
	CredentialExpiresAt time.Time `json:"credential_expires_at"`
	RedirectURL         string    `json:"redirect_url"`
}
