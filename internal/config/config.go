package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Драйвери сховища сесій
const (
	SessionStoreMemory = "memory"
	SessionStoreValkey = "valkey"
)

// Config представляє повну конфігурацію додатку
type Config struct {
	Server       ServerConfig       `hcl:"server,block"`
	Database     DatabaseConfig     `hcl:"database,block"`
	Provider     ProviderConfig     `hcl:"provider,block"`
	Security     SecurityConfig     `hcl:"security,block"`
	SessionStore SessionStoreConfig `hcl:"session_store,block"`
}

// ServerConfig містить налаштування HTTP сервера
type ServerConfig struct {
	Host            string `hcl:"host,optional" env:"HOST"`
	Port            int    `hcl:"port,optional" env:"PORT"`
	Environment     string `hcl:"environment,optional" env:"MODE"`
	LogLevel        string `hcl:"log_level,optional" env:"LOG_LEVEL"`
	LogFormat       string `hcl:"log_format,optional" env:"LOG_FORMAT"`
	ReadTimeout     string `hcl:"read_timeout,optional" env:"READ_TIMEOUT"`
	WriteTimeout    string `hcl:"write_timeout,optional" env:"WRITE_TIMEOUT"`
	IdleTimeout     string `hcl:"idle_timeout,optional" env:"IDLE_TIMEOUT"`
	ShutdownTimeout string `hcl:"shutdown_timeout,optional" env:"SHUTDOWN_TIMEOUT"`
	FrontendURL     string `hcl:"frontend_url" env:"FRONTEND_URL"`
}

// DatabaseConfig містить налаштування бази даних
type DatabaseConfig struct {
	URL                   string `hcl:"url" env:"DATABASE_URL"`
	MaxOpenConnections    int    `hcl:"max_open_connections,optional" env:"DB_MAX_OPEN_CONNECTIONS"`
	MaxIdleConnections    int    `hcl:"max_idle_connections,optional" env:"DB_MAX_IDLE_CONNECTIONS"`
	ConnectionMaxLifetime string `hcl:"connection_max_lifetime,optional" env:"DB_CONN_MAX_LIFETIME"`
	AutoMigrate           bool   `hcl:"auto_migrate,optional" env:"DB_AUTO_MIGRATE"`
}

// ProviderConfig містить налаштування OAuth2 провайдера
type ProviderConfig struct {
	ClientID     string   `hcl:"client_id" env:"AIRTABLE_CLIENT_ID"`
	ClientSecret string   `hcl:"client_secret" env:"AIRTABLE_CLIENT_SECRET"`
	RedirectURL  string   `hcl:"redirect_url" env:"AIRTABLE_REDIRECT_URI"`
	AuthURL      string   `hcl:"auth_url,optional" env:"AIRTABLE_AUTH_URL"`
	TokenURL     string   `hcl:"token_url,optional" env:"AIRTABLE_TOKEN_URL"`
	APIBaseURL   string   `hcl:"api_base_url,optional" env:"AIRTABLE_API_BASE_URL"`
	Scopes       []string `hcl:"scopes,optional" env:"AIRTABLE_SCOPES" envSeparator:" "`
	Timeout      string   `hcl:"timeout,optional" env:"AIRTABLE_TIMEOUT"`
}

// SecurityConfig містить налаштування безпеки
type SecurityConfig struct {
	CORS       CORSConfig       `hcl:"cors,block"`
	Session    SessionConfig    `hcl:"session,block"`
	Credential CredentialConfig `hcl:"credential,block"`
}

// CORSConfig містить налаштування CORS
type CORSConfig struct {
	AllowedOrigins   []string `hcl:"allowed_origins,optional" env:"CORS_ALLOWED_ORIGINS"`
	AllowedMethods   []string `hcl:"allowed_methods,optional" env:"CORS_ALLOWED_METHODS"`
	AllowedHeaders   []string `hcl:"allowed_headers,optional" env:"CORS_ALLOWED_HEADERS"`
	AllowCredentials bool     `hcl:"allow_credentials,optional" env:"CORS_ALLOW_CREDENTIALS"`
	MaxAge           int      `hcl:"max_age,optional" env:"CORS_MAX_AGE"`
}

// SessionConfig містить налаштування cookie сесії
type SessionConfig struct {
	Secret     string `hcl:"secret" env:"SESSION_SECRET"`
	CookieName string `hcl:"cookie_name,optional" env:"SESSION_COOKIE_NAME"`
	Domain     string `hcl:"domain,optional" env:"COOKIE_DOMAIN"`
	MaxAge     int    `hcl:"max_age,optional" env:"SESSION_MAX_AGE"`
	Secure     bool   `hcl:"secure,optional" env:"COOKIE_SECURE"`
}

// CredentialConfig містить налаштування session credential (JWT)
type CredentialConfig struct {
	Secret string `hcl:"secret" env:"JWT_SECRET"`
	Issuer string `hcl:"issuer,optional" env:"JWT_ISSUER"`
}

// SessionStoreConfig містить налаштування серверного сховища сесій
type SessionStoreConfig struct {
	Driver   string `hcl:"driver,optional" env:"SESSION_STORE_DRIVER"`
	Address  string `hcl:"address,optional" env:"VALKEY_ADDRESS"`
	Username string `hcl:"username,optional" env:"VALKEY_USERNAME"`
	Password string `hcl:"password,optional" env:"VALKEY_PASSWORD"`
	Database int    `hcl:"database,optional" env:"VALKEY_DATABASE"`
	Prefix   string `hcl:"prefix,optional" env:"SESSION_STORE_PREFIX"`
}

// envFunction дозволяє брати секрети з оточення: client_secret = env("AIRTABLE_CLIENT_SECRET")
var envFunction = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})

func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env": envFunction,
		},
	}
}

// LoadConfig завантажує конфігурацію з HCL файлу
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var config Config
	if err := hclsimple.DecodeFile(configPath, evalContext(), &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return finalize(&config)
}

// ParseConfig розбирає HCL конфігурацію з пам'яті. filename має закінчуватись на .hcl
func ParseConfig(filename string, src []byte) (*Config, error) {
	config, err := decodeUnvalidated(filename, src)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return finalize(config)
}

// decodeUnvalidated розбирає HCL без дефолтів і валідації
func decodeUnvalidated(filename string, src []byte) (*Config, error) {
	var config Config
	if err := hclsimple.Decode(filename, src, evalContext(), &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadConfigFromEnv читає конфігурацію зі змінних середовища (Kubernetes)
func LoadConfigFromEnv() (*Config, error) {
	var config Config
	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return finalize(&config)
}

func finalize(config *Config) (*Config, error) {
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// applyDefaults заповнює необов'язкові поля значеннями за замовчуванням.
// Секрети та адреси провайдера-клієнта не мають дефолтів.
func (c *Config) applyDefaults() {
	setDefault(&c.Server.Host, "0.0.0.0")
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	setDefault(&c.Server.Environment, "development")
	setDefault(&c.Server.LogLevel, "info")
	setDefault(&c.Server.LogFormat, "text")
	setDefault(&c.Server.ReadTimeout, "30s")
	setDefault(&c.Server.WriteTimeout, "30s")
	setDefault(&c.Server.IdleTimeout, "120s")
	setDefault(&c.Server.ShutdownTimeout, "5s")
	c.Server.FrontendURL = strings.TrimSuffix(c.Server.FrontendURL, "/")

	if c.Database.MaxOpenConnections == 0 {
		c.Database.MaxOpenConnections = 10
	}
	if c.Database.MaxIdleConnections == 0 {
		c.Database.MaxIdleConnections = 5
	}
	setDefault(&c.Database.ConnectionMaxLifetime, "5m")

	setDefault(&c.Provider.AuthURL, "https://airtable.com/oauth2/v1/authorize")
	setDefault(&c.Provider.TokenURL, "https://airtable.com/oauth2/v1/token")
	setDefault(&c.Provider.APIBaseURL, "https://api.airtable.com")
	if len(c.Provider.Scopes) == 0 {
		c.Provider.Scopes = []string{
			"data.records:read",
			"data.records:write",
			"schema.bases:read",
			"webhook:manage",
		}
	}
	setDefault(&c.Provider.Timeout, "10s")

	if len(c.Security.CORS.AllowedOrigins) == 0 && c.Server.FrontendURL != "" {
		c.Security.CORS.AllowedOrigins = []string{c.Server.FrontendURL}
	}
	if len(c.Security.CORS.AllowedMethods) == 0 {
		c.Security.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(c.Security.CORS.AllowedHeaders) == 0 {
		c.Security.CORS.AllowedHeaders = []string{"Content-Type", "Authorization"}
	}

	setDefault(&c.Security.Session.CookieName, "sid")
	if c.Security.Session.MaxAge == 0 {
		c.Security.Session.MaxAge = 3600
	}
	setDefault(&c.Security.Credential.Issuer, "airtable-connect")

	setDefault(&c.SessionStore.Driver, SessionStoreMemory)
	setDefault(&c.SessionStore.Prefix, "airtable-connect")
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Validate перевіряє валідність конфігурації
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.FrontendURL == "" {
		return fmt.Errorf("frontend URL is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}

	// Провайдер
	if c.Provider.ClientID == "" {
		return fmt.Errorf("provider client ID is required")
	}
	if c.Provider.ClientSecret == "" {
		return fmt.Errorf("provider client secret is required")
	}
	if c.Provider.RedirectURL == "" {
		return fmt.Errorf("provider redirect URL is required")
	}
	if _, err := parseDuration(c.Provider.Timeout); err != nil {
		return fmt.Errorf("invalid provider timeout: %w", err)
	}

	if c.Security.CORS.AllowCredentials && hasWildcardOrigin(c.Security.CORS.AllowedOrigins) {
		return fmt.Errorf("cors allowed_origins must not contain \"*\" when allow_credentials is enabled")
	}

	// Секрети
	if c.Security.Session.Secret == "" {
		return fmt.Errorf("session secret is required")
	}
	if c.Security.Credential.Secret == "" {
		return fmt.Errorf("credential secret is required")
	}

	switch c.SessionStore.Driver {
	case SessionStoreMemory:
	case SessionStoreValkey:
		if c.SessionStore.Address == "" {
			return fmt.Errorf("session store address is required for valkey driver")
		}
	default:
		return fmt.Errorf("unsupported session store driver: %s", c.SessionStore.Driver)
	}

	return nil
}

// GetAddress повертає адресу для прослуховування сервера
func (c *Config) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// IsDevelopment перевіряє чи додаток працює в режимі розробки
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction перевіряє чи додаток працює в продакшн режимі
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GenerateConfigFromTemplate генерує HCL конфігурацію з шаблону використовуючи змінні
func GenerateConfigFromTemplate(templatePath, outputPath string, vars map[string]interface{}) error {
	return generateConfigWithVars(templatePath, outputPath, vars)
}
