package middleware

import (
	"net/http"
	"strings"

	"airtable-connect/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CredentialCookieName cookie, в якій браузер отримує session credential
const CredentialCookieName = "token"

// CredentialMiddleware перевіряє session credential з cookie або Authorization header
// і кладе linked account у контекст
func CredentialMiddleware(credentialService services.CredentialService, accountService services.AccountService) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		credential := credentialFromRequest(c)
		if credential == "" {
			logrus.Warn("Missing session credential")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":             "unauthorized",
				"error_description": "Missing session credential",
			})
			c.Abort()
			return
		}

		claims, err := credentialService.Parse(credential)
		if err != nil {
			logrus.WithError(err).Warn("Invalid session credential")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":             "invalid_token",
				"error_description": "Credential validation failed",
			})
			c.Abort()
			return
		}

		account, err := accountService.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			logrus.WithError(err).WithField("account_id", claims.UserID).Warn("Credential references unknown account")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":             "invalid_token",
				"error_description": "Account not found",
			})
			c.Abort()
			return
		}

		c.Set("account", account)

		logrus.WithFields(logrus.Fields{
			"account_id": account.ID,
			"path":       c.Request.URL.Path,
		}).Debug("Account authenticated successfully")

		c.Next()
	})
}

func credentialFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(CredentialCookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// GetCurrentAccount витягує поточний linked account з контексту
func GetCurrentAccount(c *gin.Context) (*services.LinkedAccount, bool) {
	account, exists := c.Get("account")
	if !exists {
		return nil, false
	}

	accountObj, ok := account.(*services.LinkedAccount)
	return accountObj, ok
}
