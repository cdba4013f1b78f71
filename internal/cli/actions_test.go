package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airtable-connect/internal/config"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp()
	app.Name = "airtable-connect"
	app.Writer = &out
	app.ErrWriter = &out

	err := app.Run(append([]string{"airtable-connect"}, args...))
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runApp(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: dev")
	assert.Contains(t, out, "Git Commit: unknown")
}

func TestConfigureCommand(t *testing.T) {
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	templatePath := filepath.Join(filepath.Dir(file), "..", "..", "configs", "airtable-connect.hcl.tmpl")
	outputPath := filepath.Join(t.TempDir(), "_local.hcl")

	t.Setenv("FRONTEND_URL", "http://localhost:5173")
	t.Setenv("AIRTABLE_CLIENT_ID", "client-id")
	t.Setenv("AIRTABLE_CLIENT_SECRET", "client-secret")
	t.Setenv("SESSION_SECRET", "session-secret")
	t.Setenv("JWT_SECRET", "jwt-secret")

	out, err := runApp(t, "configure", "--template", templatePath, "--output", outputPath, "--mode", "local")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration generated successfully")

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	// Секрети лишаються посиланнями на оточення
	assert.Contains(t, string(content), `env("AIRTABLE_CLIENT_SECRET")`)
	assert.NotContains(t, string(content), "client-secret")

	cfg, err := config.LoadConfig(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "client-id", cfg.Provider.ClientID)
	assert.Equal(t, "client-secret", cfg.Provider.ClientSecret)
	assert.Equal(t, config.SessionStoreMemory, cfg.SessionStore.Driver)
	assert.True(t, cfg.IsDevelopment())
}

func TestServerCommandRequiresConfig(t *testing.T) {
	_, err := runApp(t, "server", "--config", filepath.Join(t.TempDir(), "missing.hcl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Run 'configure' command first")
}

func TestGetConfigVarsForMode(t *testing.T) {
	t.Setenv("SESSION_STORE_DRIVER", "")

	production := getConfigVars("production", "1.2.3")
	assert.Equal(t, "warn", production["log_level"])
	assert.Equal(t, true, production["cookie_secure"])
	assert.Equal(t, config.SessionStoreValkey, production["session_store_driver"])

	local := getConfigVars("local", "dev")
	assert.Equal(t, "development", local["environment"])
	assert.Equal(t, config.SessionStoreMemory, local["session_store_driver"])
}
