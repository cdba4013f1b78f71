package migrations

import (
	"gorm.io/gorm"
)

// AddLinkedAccountsUniqueConstraint додає унікальний індекс на provider_account_id.
// На ньому тримається ON CONFLICT в upsert акаунта.
func AddLinkedAccountsUniqueConstraint(tx *gorm.DB) error {
	return tx.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_linked_accounts_provider_account_id
		ON linked_accounts (provider_account_id)
	`).Error
}

// DropLinkedAccountsUniqueConstraint видаляє унікальний індекс
func DropLinkedAccountsUniqueConstraint(tx *gorm.DB) error {
	return tx.Exec(`DROP INDEX IF EXISTS idx_linked_accounts_provider_account_id`).Error
}
