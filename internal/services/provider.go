package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"airtable-connect/internal/build"
	"airtable-connect/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// DefaultProviderAccountID використовується коли токен не має доступу до жодної бази
const DefaultProviderAccountID = "airtable_user"

const basesPath = "/v0/meta/bases"

// ProviderOptions налаштування OAuth провайдера
type ProviderOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	APIBaseURL   string
	Scopes       []string
	Timeout      time.Duration
}

// providerService реалізація ProviderService
type providerService struct {
	oauth      *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
	timeout    time.Duration
}

// NewProviderService створює новий Provider сервіс
func NewProviderService(opts ProviderOptions) ProviderService {
	return &providerService{
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Scopes:       opts.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   opts.AuthURL,
				TokenURL:  opts.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBaseURL: strings.TrimSuffix(opts.APIBaseURL, "/"),
		httpClient: &http.Client{
			Transport: &userAgentTransport{base: http.DefaultTransport, userAgent: build.UserAgent()},
		},
		timeout:    opts.Timeout,
	}
}

// AuthCodeURL формує URL авторизації з state та S256 challenge
func (p *providerService) AuthCodeURL(state, verifier string) string {
	return p.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// ExchangeCode обмінює authorization code на токени. Без повторних спроб.
func (p *providerService) ExchangeCode(ctx context.Context, code, verifier string) (*models.Token, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	logrus.WithFields(logrus.Fields{
		"code":      mask(code),
		"token_url": p.oauth.Endpoint.TokenURL,
	}).Info("Exchanging authorization code for tokens")

	token, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			fields := logrus.Fields{
				"error":             retrieveErr.ErrorCode,
				"error_description": retrieveErr.ErrorDescription,
				"response":          p.redact(string(retrieveErr.Body)),
			}
			if retrieveErr.Response != nil {
				fields["status_code"] = retrieveErr.Response.StatusCode
			}
			logrus.WithFields(fields).Error("Provider rejected token exchange")
		} else {
			logrus.WithField("error", p.redact(err.Error())).Error("Token exchange request failed")
		}
		return nil, fmt.Errorf("%w: %s", ErrTokenExchangeFailed, p.redact(err.Error()))
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: provider returned no access token", ErrTokenExchangeFailed)
	}

	var expiresIn int64
	if !token.Expiry.IsZero() {
		expiresIn = int64(time.Until(token.Expiry).Round(time.Second) / time.Second)
	}

	scope, _ := token.Extra("scope").(string)

	logrus.WithFields(logrus.Fields{
		"token_type": token.TokenType,
		"expires_in": expiresIn,
		"scope":      scope,
	}).Info("Successfully received tokens from provider")

	return &models.Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresIn:    expiresIn,
		ExpiresAt:    token.Expiry,
		Scope:        scope,
	}, nil
}

// FetchIdentity отримує список баз і визначає ідентичність акаунта.
// Ключем стає ID першої доступної бази.
func (p *providerService) FetchIdentity(ctx context.Context, accessToken string) (*models.ProviderIdentity, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	client := p.oauth.Client(ctx, &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+basesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get bases: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logrus.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    p.redact(string(body)),
		}).Error("Provider metadata request failed")
		return nil, fmt.Errorf("metadata request failed with status %d", resp.StatusCode)
	}

	var bases models.BasesResponse
	if err := json.Unmarshal(body, &bases); err != nil {
		return nil, fmt.Errorf("failed to parse metadata response: %w", err)
	}

	accountID := DefaultProviderAccountID
	if len(bases.Bases) > 0 && bases.Bases[0].ID != "" {
		accountID = bases.Bases[0].ID
	}

	logrus.WithFields(logrus.Fields{
		"provider_account_id": accountID,
		"bases_count":         len(bases.Bases),
	}).Info("Resolved provider identity")

	return &models.ProviderIdentity{
		AccountID: accountID,
		Profile:   json.RawMessage(body),
	}, nil
}

func (p *providerService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

// redact прибирає client secret з діагностики провайдера
func (p *providerService) redact(value string) string {
	if p.oauth.ClientSecret == "" {
		return value
	}
	return strings.ReplaceAll(value, p.oauth.ClientSecret, "***")
}

// userAgentTransport підписує вихідні запити до провайдера ім'ям сервісу
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}
