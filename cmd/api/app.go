package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/harentsoaR/hospital-api/internal/config"
	"github.com/harentsoaR/hospital-api/internal/database"
	"github.com/harentsoaR/hospital-api/internal/handlers"
	"github.com/harentsoaR/hospital-api/internal/services"
	"github.com/harentsoaR/hospital-api/internal/utils"
)

// App holds the wired dependencies of one process.
type App struct {
	cfg     *config.Config
	log     *logrus.Logger
	auth    *services.AuthService
	router  *gin.Engine
	closers []func()
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func newApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{cfg: cfg, log: newLogger(cfg)}
	logrus.SetFormatter(app.log.Formatter)
	logrus.SetLevel(app.log.Level)

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	var stores services.Stores
	switch cfg.StoreDriver {
	case config.DriverMemory:
		app.log.Warn("Using in-memory store; data is lost on exit")
		stores = services.NewMemoryStores()
	default:
		client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = client.Disconnect(context.Background()) })
		if err := database.EnsureIndexes(ctx, db); err != nil {
			app.Close()
			return nil, err
		}
		stores = services.NewMongoStores(db)
	}

	var denylist services.Denylist = services.NewMemoryDenylist()
	if cfg.RedisURL != "" {
		client, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		denylist = services.NewRedisDenylist(client)
	}

	validator := utils.NewValidator()
	audit := services.NewAuditRecorder(stores.Audit, app.log)
	resources := services.NewResources(stores, validator, audit, app.log, cfg.BcryptCost)
	signer := utils.NewTokenSigner(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessExpiry, cfg.RefreshExpiry)
	tokens := services.NewTokenService(stores.Users, signer, denylist, app.log)
	app.auth = services.NewAuthService(resources.Users, stores.Users, tokens, validator, app.log)

	h := handlers.NewHandler(app.auth, tokens, resources, audit, cfg.CookieSecure)
	app.router = handlers.NewRouter(h, app.log, handlers.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		BodyLimit:   cfg.BodyLimit,
	})
	return app, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
