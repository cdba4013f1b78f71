package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"airtable-connect/internal/models"

	"github.com/sirupsen/logrus"
)

// DashboardPath сторінка фронтенду після успішного входу
const DashboardPath = "/dashboard"

// authService реалізація AuthService
type authService struct {
	providerService   ProviderService
	accountService    AccountService
	credentialService CredentialService
	frontendURL       string
}

// NewAuthService створює новий AuthService
func NewAuthService(providerService ProviderService, accountService AccountService, credentialService CredentialService, frontendURL string) AuthService {
	return &authService{
		providerService:   providerService,
		accountService:    accountService,
		credentialService: credentialService,
		frontendURL:       strings.TrimSuffix(frontendURL, "/"),
	}
}

// Begin готує PKCE пару і state, зберігає їх у сесії та формує URL провайдера.
// Попередня незавершена авторизація цієї сесії перезаписується.
func (s *authService) Begin(ctx context.Context, session *Session) (*models.AuthorizationRequest, error) {
	logrus.WithField("session_id", mask(session.ID())).Info("AuthService: Begin called")

	// Генеруємо state для CSRF захисту
	state, err := GenerateState()
	if err != nil {
		logrus.WithError(err).Error("Failed to generate state")
		return nil, err
	}

	pkce := NewPKCE()

	if err := session.Set(ctx, SessionKeyCSRFToken, state); err != nil {
		logrus.WithError(err).Error("Failed to store state in session")
		return nil, fmt.Errorf("failed to store state: %w", err)
	}
	if err := session.Set(ctx, SessionKeyPKCEVerifier, pkce.Verifier); err != nil {
		logrus.WithError(err).Error("Failed to store PKCE verifier in session")
		return nil, fmt.Errorf("failed to store pkce verifier: %w", err)
	}

	authURL := s.providerService.AuthCodeURL(state, pkce.Verifier)

	logrus.WithFields(logrus.Fields{
		"state":      mask(state),
		"session_id": mask(session.ID()),
	}).Info("Generated provider authorization URL")

	return &models.AuthorizationRequest{
		AuthURL:       authURL,
		State:         state,
		CodeChallenge: pkce.Challenge,
	}, nil
}

// Complete обробляє callback від провайдера. Кроки виконуються строго по черзі,
// будь-яка помилка завершує спробу.
func (s *authService) Complete(ctx context.Context, session *Session, req models.CallbackRequest) (*models.CallbackResult, error) {
	log := logrus.WithField("session_id", mask(session.ID()))
	log.Info("AuthService: Complete called")

	// CSRF перевірка. При невідповідності сесію не чіпаємо.
	storedState, pending, err := session.Get(ctx, SessionKeyCSRFToken)
	if err != nil {
		log.WithError(err).Error("Failed to read state from session")
		return nil, fmt.Errorf("%w: %w", ErrCallbackFailed, err)
	}
	if pending && !ValidateState(storedState, req.State) {
		log.Warn("State parameter does not match session")
		return nil, ErrInvalidState
	}

	// Забираємо verifier атомарно: з двох паралельних callback його отримає лише один
	verifier, ok, err := session.Take(ctx, SessionKeyPKCEVerifier)
	if err != nil {
		log.WithError(err).Error("Failed to read PKCE verifier from session")
		return nil, fmt.Errorf("%w: %w", ErrCallbackFailed, err)
	}
	if err := session.Delete(ctx, SessionKeyCSRFToken); err != nil {
		log.WithError(err).Error("Failed to consume state")
		return nil, fmt.Errorf("%w: %w", ErrCallbackFailed, err)
	}
	if !ok || !pending {
		log.Warn("No pending authorization in session")
		return nil, ErrMissingVerifier
	}

	// Перевірка на помилки від провайдера (наприклад, access_denied)
	if req.Error != "" {
		log.WithFields(logrus.Fields{
			"error":       req.Error,
			"description": req.ErrorDescription,
		}).Warn("Provider returned error instead of code")
		return nil, fmt.Errorf("%w: provider returned %s", ErrMissingCode, req.Error)
	}
	if req.Code == "" {
		log.Warn("Callback without authorization code")
		return nil, ErrMissingCode
	}

	// Обмінюємо authorization code на токени
	tokens, err := s.providerService.ExchangeCode(ctx, req.Code, verifier)
	if err != nil {
		log.WithError(err).Error("Failed to exchange code for tokens")
		if errors.Is(err, ErrTokenExchangeFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenExchangeFailed, err)
	}
	if tokens.AccessToken == "" {
		log.Error("Provider returned no access token")
		return nil, fmt.Errorf("%w: empty access token", ErrTokenExchangeFailed)
	}

	identity, err := s.providerService.FetchIdentity(ctx, tokens.AccessToken)
	if err != nil {
		log.WithError(err).Error("Failed to fetch provider identity")
		return nil, fmt.Errorf("%w: %w", ErrCallbackFailed, err)
	}

	tokenExpiry := tokens.ExpiresAt
	if tokenExpiry.IsZero() && tokens.ExpiresIn > 0 {
		tokenExpiry = time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	}

	account, err := s.accountService.Upsert(ctx, &LinkedAccount{
		ProviderAccountID: identity.AccountID,
		Profile:           string(identity.Profile),
		AccessToken:       tokens.AccessToken,
		RefreshToken:      tokens.RefreshToken,
		TokenExpiry:       tokenExpiry,
		LastLoginAt:       time.Now(),
	})
	if err != nil {
		log.WithError(err).Error("Failed to save linked account")
		return nil, fmt.Errorf("%w: %w", ErrCallbackFailed, err)
	}

	credential, expiresAt, err := s.credentialService.Mint(account.ID)
	if err != nil {
		log.WithError(err).Error("Failed to mint session credential")
		return nil, fmt.Errorf("%w: %w", ErrCallbackFailed, err)
	}

	// Незавершена авторизація одноразова
	if err := session.Delete(ctx, SessionKeyCSRFToken, SessionKeyPKCEVerifier); err != nil {
		log.WithError(err).Warn("Failed to clean up session after login")
	}

	log.WithFields(logrus.Fields{
		"account_id":          account.ID,
		"provider_account_id": account.ProviderAccountID,
	}).Info("OAuth callback processed successfully")

	return &models.CallbackResult{
		AccountID:           account.ID,
		ProviderAccountID:   account.ProviderAccountID,
		Credential:          credential,
		CredentialExpiresAt: expiresAt,
		RedirectURL:         s.frontendURL + DashboardPath,
	}, nil
}
