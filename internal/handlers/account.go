package handlers

import (
	"encoding/json"
	"net/http"

	"airtable-connect/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AccountHandler містить handlers для поточного linked account
type AccountHandler struct{}

// NewAccountHandler створює новий AccountHandler
func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

// Me повертає linked account, якому належить session credential
// @Summary Current account
// @Description Повертає linked account поточного session credential (без токенів провайдера)
// @Tags account
// @Produce json
// @Security CookieAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/provider/me [get]
func (h *AccountHandler) Me(c *gin.Context) {
	account, ok := middleware.GetCurrentAccount(c)
	if !ok {
		logrus.Error("Failed to get account from context")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get account from context",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                  account.ID,
		"provider_account_id": account.ProviderAccountID,
		"profile":             json.RawMessage(account.Profile),
		"token_expiry":        account.TokenExpiry,
		"last_login_at":       account.LastLoginAt,
		"created_at":          account.CreatedAt,
	})
}
