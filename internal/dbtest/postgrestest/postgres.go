package postgrestest

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"airtable-connect/migrations"
)

const (
	DBUser     = "postgres"
	DBPassword = "secret"
	DBName     = "airtable_connect"
)

// Start піднімає PostgreSQL контейнер, застосовує міграції і повертає
// підключення GORM разом з функцією зупинки контейнера.
func Start(ctx context.Context) (*gorm.DB, func(ctx context.Context), error) {
	pgContainer, err := postgres.Run(
		ctx,
		"postgres:17-alpine",
		postgres.WithDatabase(DBName),
		postgres.WithUsername(DBUser),
		postgres.WithPassword(DBPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	terminate := func(ctx context.Context) {
		if err := pgContainer.Terminate(ctx); err != nil {
			logrus.WithError(err).Error("Failed to terminate PostgreSQL container")
		}
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate(ctx)
		return nil, nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		terminate(ctx)
		return nil, nil, fmt.Errorf("failed to connect to postgres container: %w", err)
	}

	if err := migrations.Up(db); err != nil {
		terminate(ctx)
		return nil, nil, err
	}

	return db, terminate, nil
}
