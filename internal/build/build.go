package build

import "fmt"

// ServiceName ім'я сервісу в логах, health check та User-Agent
const ServiceName = "airtable-connect"

var (
	// Version додатку (встановлюється через ldflags)
	Version = "dev"

	// Number білда (встановлюється через ldflags)
	Number = "local"

	// GitCommit хеш коміту (встановлюється через ldflags)
	GitCommit = "unknown"

	// BuildTime час збірки (встановлюється через ldflags)
	BuildTime = "unknown"
)

// Info повертає інформацію про білд
func Info() map[string]string {
	return map[string]string{
		"service":    ServiceName,
		"version":    Version,
		"number":     Number,
		"git_commit": GitCommit,
		"build_time": BuildTime,
	}
}

// UserAgent повертає User-Agent для запитів до провайдера
func UserAgent() string {
	return fmt.Sprintf("%s/%s (+%s)", ServiceName, Version, GitCommit)
}
