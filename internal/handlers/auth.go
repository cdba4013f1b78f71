package handlers

import (
	"errors"
	"net/http"
	"time"

	"airtable-connect/internal/middleware"
	"airtable-connect/internal/models"
	"airtable-connect/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Тексти відповідей на помилки callback
const (
	msgInvalidState        = "Invalid state parameter"
	msgMissingVerifier     = "Missing PKCE verifier"
	msgMissingCode         = "Missing authorization code"
	msgTokenExchangeFailed = "OAuth token exchange failed"
	msgCallbackFailed      = "OAuth callback failed"
)

// AuthHandler містить handlers для OAuth2 авторизації через провайдера
type AuthHandler struct {
	authService  services.AuthService
	cookieDomain string
	cookieSecure bool
}

// NewAuthHandler створює новий AuthHandler
func NewAuthHandler(authService services.AuthService, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieDomain: cookieDomain,
		cookieSecure: cookieSecure,
	}
}

// Start ініціює Authorization Code Flow з PKCE
// @Summary OAuth Start
// @Description Генерує PKCE пару і state, зберігає їх у сесії та перенаправляє на сторінку авторизації провайдера
// @Tags auth
// @Success 302 "Redirect to provider authorization page"
// @Failure 500 {string} string
// @Router /auth/provider/start [get]
func (h *AuthHandler) Start(c *gin.Context) {
	logrus.Info("🔐 OAuth start request")

	session, ok := middleware.GetSession(c)
	if !ok {
		logrus.Error("Session is not attached to request")
		c.String(http.StatusInternalServerError, msgCallbackFailed)
		return
	}

	request, err := h.authService.Begin(c.Request.Context(), session)
	if err != nil {
		logrus.WithError(err).Error("Failed to initiate OAuth authorization")
		c.String(http.StatusInternalServerError, "Failed to initiate OAuth authorization")
		return
	}

	c.Redirect(http.StatusFound, request.AuthURL)
}

// Callback обробляє повернення від провайдера (Authorization Code Flow)
// @Summary OAuth Callback
// @Description Перевіряє state і PKCE verifier, обмінює code на токени, зберігає linked account, встановлює cookie token і перенаправляє на dashboard
// @Tags auth
// @Param code query string false "Authorization Code"
// @Param state query string false "State"
// @Param error query string false "Provider error"
// @Success 302 "Redirect to frontend dashboard"
// @Failure 400 {string} string
// @Failure 500 {string} string
// @Router /auth/provider/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	logrus.Info("🔄 OAuth callback")

	session, ok := middleware.GetSession(c)
	if !ok {
		logrus.Error("Session is not attached to request")
		c.String(http.StatusInternalServerError, msgCallbackFailed)
		return
	}

	var req models.CallbackRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		logrus.WithError(err).Warn("Invalid callback query")
		c.String(http.StatusBadRequest, msgMissingCode)
		return
	}

	result, err := h.authService.Complete(c.Request.Context(), session, req)
	if err != nil {
		status, message := callbackErrorResponse(err)
		logrus.WithError(err).WithField("status", status).Error("Failed to handle OAuth callback")
		c.String(status, message)
		return
	}

	maxAge := int(time.Until(result.CredentialExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = int(services.CredentialTTL.Seconds())
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CredentialCookieName, result.Credential, maxAge, "/", h.cookieDomain, h.cookieSecure, true)

	logrus.WithField("account_id", result.AccountID).Info("OAuth callback processed successfully")
	c.Redirect(http.StatusFound, result.RedirectURL)
}

// callbackErrorResponse відображає помилку callback у статус і фіксований текст
func callbackErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidState):
		return http.StatusBadRequest, msgInvalidState
	case errors.Is(err, services.ErrMissingVerifier):
		return http.StatusBadRequest, msgMissingVerifier
	case errors.Is(err, services.ErrMissingCode):
		return http.StatusBadRequest, msgMissingCode
	case errors.Is(err, services.ErrTokenExchangeFailed):
		return http.StatusInternalServerError, msgTokenExchangeFailed
	default:
		return http.StatusInternalServerError, msgCallbackFailed
	}
}
