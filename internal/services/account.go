package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// accountService реалізація AccountService
type accountService struct {
	db *gorm.DB
}

// NewAccountService створює новий AccountService
func NewAccountService(db *gorm.DB) AccountService {
	return &accountService{
		db: db,
	}
}

// Upsert створює linked account або оновлює існуючий з тим самим provider_account_id.
// При конкурентних логінах перемагає останній запис.
func (s *accountService) Upsert(ctx context.Context, account *LinkedAccount) (*LinkedAccount, error) {
	now := time.Now()
	record := *account
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Profile == "" {
		record.Profile = "{}"
	}
	record.CreatedAt = now
	record.UpdatedAt = now

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider_account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"profile",
			"access_token",
			"refresh_token",
			"token_expiry",
			"last_login_at",
			"updated_at",
		}),
	}).Create(&record).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert linked account: %w", err)
	}

	// Повертаємо актуальний запис (ID існуючого акаунта не змінюється)
	stored, err := s.GetByProviderAccountID(ctx, account.ProviderAccountID)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"account_id":          stored.ID,
		"provider_account_id": stored.ProviderAccountID,
	}).Info("Linked account upserted")

	return stored, nil
}

// GetByID отримує linked account за internal ID
func (s *accountService) GetByID(ctx context.Context, id string) (*LinkedAccount, error) {
	var account LinkedAccount
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get linked account: %w", err)
	}
	return &account, nil
}

// GetByProviderAccountID отримує linked account за ідентичністю провайдера
func (s *accountService) GetByProviderAccountID(ctx context.Context, providerAccountID string) (*LinkedAccount, error) {
	var account LinkedAccount
	err := s.db.WithContext(ctx).Where("provider_account_id = ?", providerAccountID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get linked account: %w", err)
	}
	return &account, nil
}
