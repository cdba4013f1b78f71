package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessVarTags(t *testing.T) {
	content := `host = {{var "host" "localhost" false}}
port = {{var "port" 8080 false}}
secure = {{var "secure" false false}}
secret = {{var "secret" "" true}}
origins = {{var "origins" "" false}}`

	out, err := processVarTags(content, map[string]interface{}{
		"port":    9000,
		"secret":  `env("SESSION_SECRET")`,
		"origins": []string{"http://a.test", " http://b.test"},
	})
	require.NoError(t, err)

	assert.Contains(t, out, `host = "localhost"`)
	assert.Contains(t, out, `port = 9000`)
	assert.Contains(t, out, `secure = false`)
	assert.Contains(t, out, `secret = env("SESSION_SECRET")`)
	assert.Contains(t, out, `origins = ["http://a.test", "http://b.test"]`)
}

func TestProcessVarTagsMissingRequired(t *testing.T) {
	_, err := processVarTags(`a = {{var "b_var" "" true}}
c = {{var "a_var" "" true}}`, map[string]interface{}{"b_var": ""})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "a_var, b_var")
}

func TestFormatValueEscapesStrings(t *testing.T) {
	assert.Equal(t, `"pa\"ss"`, formatValue(`pa"ss`))
	assert.Equal(t, `1.5`, formatValue(1.5))
	assert.Equal(t, `true`, formatValue(true))
}

func TestGenerateConfigFromTemplate(t *testing.T) {
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	templatePath := filepath.Join(filepath.Dir(file), "..", "..", "configs", "airtable-connect.hcl.tmpl")

	outputPath := filepath.Join(t.TempDir(), "nested", "_local.hcl")
	err := GenerateConfigFromTemplate(templatePath, outputPath, map[string]interface{}{
		"environment":            "development",
		"frontend_url":           "http://localhost:5173",
		"database_url":           "postgres://localhost:5432/airtable",
		"airtable_client_id":     "client-id",
		"airtable_client_secret": `env("TEST_TEMPLATE_CLIENT_SECRET")`,
		"airtable_redirect_uri":  "http://localhost:8080/auth/airtable/callback",
		"session_secret":         `env("TEST_TEMPLATE_SESSION_SECRET")`,
		"jwt_secret":             `env("TEST_TEMPLATE_JWT_SECRET")`,
	})
	require.NoError(t, err)

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "{{")

	t.Setenv("TEST_TEMPLATE_CLIENT_SECRET", "client-secret")
	t.Setenv("TEST_TEMPLATE_SESSION_SECRET", "session-secret")
	t.Setenv("TEST_TEMPLATE_JWT_SECRET", "jwt-secret")

	cfg, err := LoadConfig(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "client-secret", cfg.Provider.ClientSecret)
	assert.Equal(t, "http://localhost:5173", cfg.Server.FrontendURL)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, SessionStoreMemory, cfg.SessionStore.Driver)
}

func TestGenerateConfigFromTemplateRequiresValues(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "tmpl.hcl.tmpl")
	require.NoError(t, os.WriteFile(templatePath, []byte(`server { frontend_url = {{var "frontend_url" "" true}} }`), 0600))

	err := GenerateConfigFromTemplate(templatePath, filepath.Join(dir, "out.hcl"), map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frontend_url")

	_, statErr := os.Stat(filepath.Join(dir, "out.hcl"))
	assert.True(t, os.IsNotExist(statErr))
}
