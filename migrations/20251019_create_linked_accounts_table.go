package migrations

import (
	"time"

	"gorm.io/gorm"
)

// LinkedAccount модель для міграції
type LinkedAccount struct {
	ID                string    `gorm:"primaryKey;size:36"`
	ProviderAccountID string    `gorm:"size:255;not null"`
	Profile           string    `gorm:"type:jsonb;not null;default:'{}'"`
	AccessToken       string    `gorm:"type:text;not null"`
	RefreshToken      string    `gorm:"type:text"`
	TokenExpiry       time.Time
	LastLoginAt       time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName явно задає ім'я таблиці для GORM
func (LinkedAccount) TableName() string {
	return "linked_accounts"
}

// CreateLinkedAccountsTable створює таблицю linked_accounts
func CreateLinkedAccountsTable(tx *gorm.DB) error {
	return tx.AutoMigrate(&LinkedAccount{})
}

// DropLinkedAccountsTable видаляє таблицю linked_accounts
func DropLinkedAccountsTable(tx *gorm.DB) error {
	return tx.Migrator().DropTable("linked_accounts")
}
