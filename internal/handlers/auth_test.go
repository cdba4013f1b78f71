package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"airtable-connect/internal/middleware"
	"airtable-connect/internal/models"
	"airtable-connect/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuthService фіксує виклики і повертає налаштовані результати
type stubAuthService struct {
	mu sync.Mutex

	begin    *models.AuthorizationRequest
	beginErr error
	result   *models.CallbackResult
	err      error

	beginSessionID    string
	completeSessionID string
	lastRequest       models.CallbackRequest
}

func (s *stubAuthService) Begin(_ context.Context, session *services.Session) (*models.AuthorizationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beginSessionID = session.ID()
	return s.begin, s.beginErr
}

func (s *stubAuthService) Complete(_ context.Context, session *services.Session, req models.CallbackRequest) (*models.CallbackResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completeSessionID = session.ID()
	s.lastRequest = req
	return s.result, s.err
}

func newAuthRouter(t *testing.T, auth services.AuthService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := middleware.NewSessionCookieCodec("test-session-secret", 3600)
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.SessionMiddleware(services.NewMemorySessionStore(time.Hour), codec, middleware.SessionCookieOptions{MaxAge: 3600}))

	h := NewAuthHandler(auth, "", false)
	r.GET("/auth/provider/start", h.Start)
	r.GET("/auth/provider/callback", h.Callback)
	return r
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestAuthHandler_Start(t *testing.T) {
	stub := &stubAuthService{
		begin: &models.AuthorizationRequest{AuthURL: "https://provider.test/authorize?state=abc"},
	}
	r := newAuthRouter(t, stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/provider/start", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://provider.test/authorize?state=abc", w.Header().Get("Location"))

	sid := findCookie(w.Result().Cookies(), middleware.DefaultSessionCookieName)
	require.NotNil(t, sid)
	assert.True(t, sid.HttpOnly)
	assert.NotContains(t, sid.Value, stub.beginSessionID)
}

func TestAuthHandler_StartFailure(t *testing.T) {
	r := newAuthRouter(t, &stubAuthService{beginErr: fmt.Errorf("session store down")})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/provider/start", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "session store down")
}

func TestAuthHandler_SessionSurvivesRedirect(t *testing.T) {
	stub := &stubAuthService{
		begin: &models.AuthorizationRequest{AuthURL: "https://provider.test/authorize"},
		err:   services.ErrInvalidState,
	}
	r := newAuthRouter(t, stub)

	start := httptest.NewRecorder()
	r.ServeHTTP(start, httptest.NewRequest(http.MethodGet, "/auth/provider/start", nil))
	sid := findCookie(start.Result().Cookies(), middleware.DefaultSessionCookieName)
	require.NotNil(t, sid)

	req := httptest.NewRequest(http.MethodGet, "/auth/provider/callback?code=abc&state=xyz", nil)
	req.AddCookie(sid)
	callback := httptest.NewRecorder()
	r.ServeHTTP(callback, req)

	assert.NotEmpty(t, stub.beginSessionID)
	assert.Equal(t, stub.beginSessionID, stub.completeSessionID)
	// Існуюча сесія не отримує нову cookie
	assert.Nil(t, findCookie(callback.Result().Cookies(), middleware.DefaultSessionCookieName))
}

func TestAuthHandler_TamperedSessionCookieStartsNewSession(t *testing.T) {
	stub := &stubAuthService{err: services.ErrMissingVerifier}
	r := newAuthRouter(t, stub)

	req := httptest.NewRequest(http.MethodGet, "/auth/provider/callback?code=abc&state=xyz", nil)
	req.AddCookie(&http.Cookie{Name: middleware.DefaultSessionCookieName, Value: "sess_forged"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEqual(t, "sess_forged", stub.completeSessionID)
	assert.NotNil(t, findCookie(w.Result().Cookies(), middleware.DefaultSessionCookieName))
}

func TestAuthHandler_CallbackSuccess(t *testing.T) {
	stub := &stubAuthService{
		result: &models.CallbackResult{
			AccountID:           "account-1",
			ProviderAccountID:   "base1",
			Credential:          "signed.jwt.value",
			CredentialExpiresAt: time.Now().Add(services.CredentialTTL),
			RedirectURL:         "http://localhost:5173/dashboard",
		},
	}
	r := newAuthRouter(t, stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/provider/callback?code=abc123&state=s1", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "http://localhost:5173/dashboard", w.Header().Get("Location"))
	assert.Equal(t, models.CallbackRequest{Code: "abc123", State: "s1"}, stub.lastRequest)

	token := findCookie(w.Result().Cookies(), middleware.CredentialCookieName)
	require.NotNil(t, token)
	assert.Equal(t, "signed.jwt.value", token.Value)
	assert.True(t, token.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, token.SameSite)
	assert.Equal(t, "/", token.Path)
	assert.InDelta(t, 604800, token.MaxAge, 5)
	assert.NotContains(t, w.Body.String(), "signed.jwt.value")
}

func TestAuthHandler_CallbackPassesProviderError(t *testing.T) {
	stub := &stubAuthService{err: fmt.Errorf("%w: access_denied", services.ErrMissingCode)}
	r := newAuthRouter(t, stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/provider/callback?error=access_denied&error_description=User+denied&state=s1", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing authorization code", w.Body.String())
	assert.Equal(t, "access_denied", stub.lastRequest.Error)
	assert.Equal(t, "User denied", stub.lastRequest.ErrorDescription)
}

func TestAuthHandler_CallbackLeavesProviderErrorLogToService(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	stub := &stubAuthService{err: fmt.Errorf("%w: access_denied", services.ErrMissingCode)}
	r := newAuthRouter(t, stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/provider/callback?error=access_denied&error_description=User+denied&state=s1", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
	for _, entry := range hook.AllEntries() {
		assert.NotContains(t, entry.Data, "description")
		assert.NotEqual(t, "User denied", entry.Data["error"])
	}
	// Handler логує лише власну помилку обробки
	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, logrus.ErrorLevel, last.Level)
	assert.Equal(t, "Failed to handle OAuth callback", last.Message)
}

func TestAuthHandler_CallbackErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "invalid state",
			err:        services.ErrInvalidState,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid state parameter",
		},
		{
			name:       "missing verifier",
			err:        services.ErrMissingVerifier,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Missing PKCE verifier",
		},
		{
			name:       "missing code",
			err:        services.ErrMissingCode,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Missing authorization code",
		},
		{
			name:       "token exchange failed",
			err:        fmt.Errorf("%w: status 400 invalid_grant", services.ErrTokenExchangeFailed),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "OAuth token exchange failed",
		},
		{
			name:       "callback failed",
			err:        fmt.Errorf("%w: upsert: connection refused", services.ErrCallbackFailed),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "OAuth callback failed",
		},
		{
			name:       "unclassified error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "OAuth callback failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newAuthRouter(t, &stubAuthService{err: tt.err})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/provider/callback?code=abc&state=s1", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
			assert.Nil(t, findCookie(w.Result().Cookies(), middleware.CredentialCookieName))
			assert.Empty(t, w.Header().Get("Location"))
		})
	}
}

func TestAuthHandler_RequiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAuthHandler(&stubAuthService{}, "", false)
	r.GET("/auth/provider/start", h.Start)
	r.GET("/auth/provider/callback", h.Callback)

	for _, path := range []string{"/auth/provider/start", "/auth/provider/callback?code=abc"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
	}
}
