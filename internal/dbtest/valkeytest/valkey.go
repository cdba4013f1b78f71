package valkeytest

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	valkeycontainer "github.com/testcontainers/testcontainers-go/modules/valkey"
	"github.com/valkey-io/valkey-go"
)

// Start піднімає Valkey контейнер і повертає клієнта та функцію зупинки
func Start(ctx context.Context) (valkey.Client, func(ctx context.Context), error) {
	valkeyContainer, err := valkeycontainer.Run(ctx, "valkey/valkey:8-alpine")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start valkey container: %w", err)
	}

	terminate := func(ctx context.Context) {
		if err := valkeyContainer.Terminate(ctx); err != nil {
			logrus.WithError(err).Error("Failed to terminate Valkey container")
		}
	}

	uri, err := valkeyContainer.ConnectionString(ctx)
	if err != nil {
		terminate(ctx)
		return nil, nil, fmt.Errorf("failed to get valkey connection string: %w", err)
	}

	option, err := valkey.ParseURL(uri)
	if err != nil {
		terminate(ctx)
		return nil, nil, fmt.Errorf("failed to parse valkey connection string: %w", err)
	}

	client, err := valkey.NewClient(option)
	if err != nil {
		terminate(ctx)
		return nil, nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	return client, func(ctx context.Context) {
		client.Close()
		terminate(ctx)
	}, nil
}
