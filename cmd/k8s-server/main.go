// Airtable Connect для Kubernetes - читає конфігурацію зі змінних середовища
package main

import (
	"github.com/sirupsen/logrus"

	"airtable-connect/internal/config"
)

func main() {
	cfg, err := config.LoadConfigFromEnv()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	if err := config.StartServer(cfg); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
