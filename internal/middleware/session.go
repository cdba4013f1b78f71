package middleware

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"

	"airtable-connect/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/hkdf"
)

// DefaultSessionCookieName ім'я cookie з ідентифікатором сесії
const DefaultSessionCookieName = "sid"

const sessionContextKey = "session"

// SessionCookieOptions параметри cookie сесії
type SessionCookieOptions struct {
	Name   string
	Domain string
	Secure bool
	MaxAge int
}

// NewSessionCookieCodec створює кодек cookie сесії. Ключі підпису та шифрування
// виводяться з одного секрету через HKDF, тож конфігурація містить лише один секрет.
func NewSessionCookieCodec(secret string, maxAge int) (*securecookie.SecureCookie, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}

	hashKey, err := deriveKey(secret, "session-cookie-hash", 64)
	if err != nil {
		return nil, err
	}
	blockKey, err := deriveKey(secret, "session-cookie-block", 32)
	if err != nil {
		return nil, err
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(maxAge)
	return codec, nil
}

func deriveKey(secret, info string, size int) ([]byte, error) {
	key := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive %s key: %w", info, err)
	}
	return key, nil
}

// SessionMiddleware прив'язує до запиту серверну сесію. Ідентифікатор сесії
// передається у підписаній та зашифрованій cookie; якщо її немає або вона
// недійсна, створюється нова сесія.
func SessionMiddleware(store services.SessionStore, codec *securecookie.SecureCookie, opts SessionCookieOptions) gin.HandlerFunc {
	if opts.Name == "" {
		opts.Name = DefaultSessionCookieName
	}

	return gin.HandlerFunc(func(c *gin.Context) {
		var sessionID string
		if raw, err := c.Cookie(opts.Name); err == nil {
			if err := codec.Decode(opts.Name, raw, &sessionID); err != nil {
				logrus.WithError(err).Debug("Discarding invalid session cookie")
				sessionID = ""
			}
		}

		if sessionID == "" {
			id, err := services.NewSessionID()
			if err != nil {
				logrus.WithError(err).Error("Failed to generate session ID")
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}

			encoded, err := codec.Encode(opts.Name, id)
			if err != nil {
				logrus.WithError(err).Error("Failed to encode session cookie")
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}

			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(opts.Name, encoded, opts.MaxAge, "/", opts.Domain, opts.Secure, true)
			sessionID = id
		}

		c.Set(sessionContextKey, services.NewSession(sessionID, store))
		c.Next()
	})
}

// GetSession витягує сесію поточного запиту з контексту
func GetSession(c *gin.Context) (*services.Session, bool) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, false
	}

	session, ok := value.(*services.Session)
	return session, ok
}
