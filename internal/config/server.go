package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"airtable-connect/internal/handlers"
	"airtable-connect/internal/middleware"
	"airtable-connect/internal/services"
	"airtable-connect/migrations"

	_ "airtable-connect/docs"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/valkey-io/valkey-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Префікси маршрутів авторизації. Другий зберігає старі адреси callback,
// зареєстровані у провайдера.
var authRoutePrefixes = []string{"/auth/provider", "/auth/airtable"}

// StartServer запускає HTTP сервер з конфігурацією
func StartServer(cfg *Config) error {
	setupLogging(cfg)

	db, err := connectToDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if cfg.Database.AutoMigrate {
		logrus.Info("🛠️  Running migrations on startup...")
		if err := migrations.Up(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	store, closeStore, err := newSessionStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to create session store: %w", err)
	}
	defer closeStore()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	r, err := NewRouter(cfg, db, store)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.GetAddress(),
		Handler:      r,
		ReadTimeout:  durationOrDefault("server.read_timeout", cfg.Server.ReadTimeout, 30*time.Second),
		WriteTimeout: durationOrDefault("server.write_timeout", cfg.Server.WriteTimeout, 30*time.Second),
		IdleTimeout:  durationOrDefault("server.idle_timeout", cfg.Server.IdleTimeout, 120*time.Second),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logrus.Infof("🚀 Starting Airtable Connect on %s", cfg.GetAddress())
		logrus.Infof("Environment: %s", cfg.Server.Environment)
		logrus.Infof("Session store: %s", cfg.SessionStore.Driver)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}
	logrus.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), durationOrDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logrus.Info("✅ Server exited gracefully")
	return nil
}

// NewRouter будує gin engine з усіма маршрутами
func NewRouter(cfg *Config, db *gorm.DB, store services.SessionStore) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg))

	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if err := setupRoutes(r, cfg, db, store); err != nil {
		return nil, err
	}
	return r, nil
}

// setupLogging налаштовує логування
func setupLogging(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid log level '%s', using info", cfg.Server.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Server.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// corsMiddleware налаштовує CORS middleware
func corsMiddleware(cfg *Config) gin.HandlerFunc {
	cors := cfg.Security.CORS
	methods := strings.Join(cors.AllowedMethods, ", ")
	headers := strings.Join(cors.AllowedHeaders, ", ")

	return gin.HandlerFunc(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		switch {
		case origin == "":
		case isListedOrigin(origin, cors.AllowedOrigins):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			if cors.AllowCredentials {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
		case hasWildcardOrigin(cors.AllowedOrigins):
			// Wildcard ніколи не отримує credentials
			c.Header("Access-Control-Allow-Origin", "*")
		}

		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", headers)

		if cors.MaxAge > 0 {
			c.Header("Access-Control-Max-Age", strconv.Itoa(cors.MaxAge))
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})
}

func isListedOrigin(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if allowed != "*" && strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

func hasWildcardOrigin(allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			return true
		}
	}
	return false
}

// setupRoutes налаштовує маршрути
func setupRoutes(r *gin.Engine, cfg *Config, db *gorm.DB, store services.SessionStore) error {
	accountService := services.NewAccountService(db)
	credentialService := services.NewJWTService(cfg.Security.Credential.Secret, cfg.Security.Credential.Issuer)
	providerService := services.NewProviderService(services.ProviderOptions{
		ClientID:     cfg.Provider.ClientID,
		ClientSecret: cfg.Provider.ClientSecret,
		RedirectURL:  cfg.Provider.RedirectURL,
		AuthURL:      cfg.Provider.AuthURL,
		TokenURL:     cfg.Provider.TokenURL,
		APIBaseURL:   cfg.Provider.APIBaseURL,
		Scopes:       cfg.Provider.Scopes,
		Timeout:      durationOrDefault("provider.timeout", cfg.Provider.Timeout, 10*time.Second),
	})
	authService := services.NewAuthService(providerService, accountService, credentialService, cfg.Server.FrontendURL)

	codec, err := middleware.NewSessionCookieCodec(cfg.Security.Session.Secret, cfg.Security.Session.MaxAge)
	if err != nil {
		return fmt.Errorf("failed to create session cookie codec: %w", err)
	}
	sessionMiddleware := middleware.SessionMiddleware(store, codec, middleware.SessionCookieOptions{
		Name:   cfg.Security.Session.CookieName,
		Domain: cfg.Security.Session.Domain,
		Secure: cfg.Security.Session.Secure,
		MaxAge: cfg.Security.Session.MaxAge,
	})
	credentialMiddleware := middleware.CredentialMiddleware(credentialService, accountService)

	authHandler := handlers.NewAuthHandler(authService, cfg.Security.Session.Domain, cfg.Security.Session.Secure)
	accountHandler := handlers.NewAccountHandler()
	healthHandler := handlers.NewHealthHandler(
		handlers.HealthCheck{Name: "database", Check: databaseCheck(db)},
		handlers.HealthCheck{Name: "session_store", Check: store.Ping},
	)

	r.GET("/health", healthHandler.Health)

	for _, prefix := range authRoutePrefixes {
		auth := r.Group(prefix)
		{
			auth.GET("/start", sessionMiddleware, authHandler.Start)
			auth.GET("/callback", sessionMiddleware, authHandler.Callback)
			auth.GET("/me", credentialMiddleware, accountHandler.Me)
		}
	}

	return nil
}

func databaseCheck(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if db == nil {
			return errors.New("database is not configured")
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// newSessionStore створює сховище сесій за налаштованим драйвером
func newSessionStore(cfg *Config) (services.SessionStore, func(), error) {
	ttl := time.Duration(cfg.Security.Session.MaxAge) * time.Second

	switch cfg.SessionStore.Driver {
	case SessionStoreValkey:
		client, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: []string{cfg.SessionStore.Address},
			Username:    cfg.SessionStore.Username,
			Password:    cfg.SessionStore.Password,
			SelectDB:    cfg.SessionStore.Database,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to valkey: %w", err)
		}
		logrus.Infof("🗄️  Using Valkey session store at %s", cfg.SessionStore.Address)
		return services.NewValkeySessionStore(client, cfg.SessionStore.Prefix, ttl), client.Close, nil
	case SessionStoreMemory:
		logrus.Warn("Using in-memory session store, sessions are not shared between instances")
		return services.NewMemorySessionStore(ttl), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session store driver: %s", cfg.SessionStore.Driver)
	}
}

// openDatabase відкриває GORM підключення до PostgreSQL
func openDatabase(cfg *Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	// В debug режимі включаємо логування SQL запитів
	if cfg.IsDevelopment() {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.URL), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// connectToDatabase підключається до бази і налаштовує connection pool
func connectToDatabase(cfg *Config) (*gorm.DB, error) {
	logrus.Info("🔌 Connecting to PostgreSQL database")

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	connectionMaxLifetime := durationOrDefault("database.connection_max_lifetime", cfg.Database.ConnectionMaxLifetime, 5*time.Minute)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConnections)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConnections)
	sqlDB.SetConnMaxLifetime(connectionMaxLifetime)

	logrus.Infof("📊 Database connection pool configured: MaxOpen=%d, MaxIdle=%d, MaxLifetime=%v",
		cfg.Database.MaxOpenConnections, cfg.Database.MaxIdleConnections, connectionMaxLifetime)

	return db, nil
}

// RunMigrations виконує тільки міграції без запуску сервера
func RunMigrations(cfg *Config, rollback bool) error {
	setupLogging(cfg)

	logrus.Info("🔌 Connecting to PostgreSQL database for migrations")
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	defer sqlDB.Close()

	if rollback {
		logrus.Info("↩️  Rolling back last migration...")
		return migrations.Down(db)
	}

	logrus.Info("🛠️  Running migrations...")
	if err := migrations.Up(db); err != nil {
		return err
	}

	logrus.Info("✅ Database migrations completed successfully")
	return nil
}
