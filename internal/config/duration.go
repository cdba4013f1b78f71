package config

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// parseDuration розбирає тривалість з конфігурації і відкидає від'ємні значення
func parseDuration(value string) (time.Duration, error) {
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if parsed < 0 {
		return 0, fmt.Errorf("duration must not be negative: %s", value)
	}
	return parsed, nil
}

// durationOrDefault повертає тривалість або дефолт з попередженням у лог
func durationOrDefault(name, value string, fallback time.Duration) time.Duration {
	parsed, err := parseDuration(value)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"setting": name,
			"default": fallback,
		}).Warn("Invalid duration, using default")
		return fallback
	}
	return parsed
}
