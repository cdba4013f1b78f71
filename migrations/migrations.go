package migrations

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migration описує один крок схеми
type Migration struct {
	ID       string
	Migrate  func(tx *gorm.DB) error
	Rollback func(tx *gorm.DB) error
}

// SchemaMigration запис про застосовану міграцію
type SchemaMigration struct {
	ID        string `gorm:"primaryKey;size:255"`
	AppliedAt time.Time
}

// TableName явно задає ім'я таблиці для GORM
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

// All повертає міграції в порядку застосування
func All() []Migration {
	return []Migration{
		{
			ID:       "20251019_01_create_linked_accounts_table",
			Migrate:  CreateLinkedAccountsTable,
			Rollback: DropLinkedAccountsTable,
		},
		{
			ID:       "20251019_02_add_linked_accounts_unique_constraint",
			Migrate:  AddLinkedAccountsUniqueConstraint,
			Rollback: DropLinkedAccountsUniqueConstraint,
		},
	}
}

// Up застосовує всі ще не застосовані міграції
func Up(db *gorm.DB) error {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	for _, m := range All() {
		var count int64
		if err := db.Model(&SchemaMigration{}).Where("id = ?", m.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration %s: %w", m.ID, err)
		}
		if count > 0 {
			logrus.WithField("migration", m.ID).Debug("Migration already applied, skipping")
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Migrate(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{ID: m.ID, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.ID, err)
		}

		logrus.WithField("migration", m.ID).Info("✅ Migration applied")
	}

	return nil
}

// Down відкочує останню застосовану міграцію. Порядок визначає All(), а не ID.
func Down(db *gorm.DB) error {
	var applied []SchemaMigration
	if err := db.Find(&applied).Error; err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	appliedIDs := make(map[string]bool, len(applied))
	for _, m := range applied {
		appliedIDs[m.ID] = true
	}

	m, ok := lastApplied(All(), appliedIDs)
	if !ok {
		return fmt.Errorf("no migration to roll back")
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := m.Rollback(tx); err != nil {
			return err
		}
		return tx.Delete(&SchemaMigration{ID: m.ID}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to roll back migration %s: %w", m.ID, err)
	}

	logrus.WithField("migration", m.ID).Info("↩️  Migration rolled back")
	return nil
}

// lastApplied повертає останню за порядком застосування міграцію з applied
func lastApplied(all []Migration, applied map[string]bool) (Migration, bool) {
	for i := len(all) - 1; i >= 0; i-- {
		if applied[all[i].ID] {
			return all[i], true
		}
	}
	return Migration{}, false
}
