package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	authhandler "github.com/FACorreiaa/host-ledger/internal/domain/auth/handler"
	authservice "github.com/FACorreiaa/host-ledger/internal/domain/auth/service"
	"github.com/FACorreiaa/host-ledger/internal/domain/extraction"
	importhandler "github.com/FACorreiaa/host-ledger/internal/domain/import/handler"
	importrepo "github.com/FACorreiaa/host-ledger/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/host-ledger/internal/domain/import/service"

	"github.com/FACorreiaa/host-ledger/pkg/config"
	"github.com/FACorreiaa/host-ledger/pkg/db"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	SQLite *gorm.DB
	Logger *slog.Logger

	// Repositories
	ImportRepo importrepo.ReservationRepository

	// Extraction
	Extractor extraction.Extractor
	Cache     extraction.ResponseCache
	Runner    *extraction.Runner

	// Services
	TokenManager  *authservice.TokenManager
	AuthService   *authservice.AuthService
	ImportService *importservice.ImportService

	// Handlers
	AuthHandler   *authhandler.AuthHandler
	ImportHandler *importhandler.ImportHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initExtraction(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init extraction: %w", err)
	}

	if err := deps.initServices(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase opens the configured backend and runs migrations
func (d *Dependencies) initDatabase() error {
	switch d.Config.Database.Driver {
	case "postgres":
		database, err := db.New(db.Config{
			DSN:             d.Config.Database.DSN(),
			MaxConns:        d.Config.Database.MaxConns,
			MinConns:        d.Config.Database.MinConns,
			MaxConnLifetime: 5 * time.Minute,
			MaxConnIdleTime: 10 * time.Minute,
		}, d.Logger)
		if err != nil {
			return err
		}
		d.DB = database

		if err := d.DB.RunMigrations(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		d.Logger.Info("database connected and migrations completed successfully")

	case "sqlite":
		sqlite, err := db.OpenSQLite(d.Config.Database.SQLitePath, d.Logger)
		if err != nil {
			return err
		}
		d.SQLite = sqlite

	default:
		d.Logger.Warn("using in-memory storage, reservations are lost on restart")
	}
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	switch {
	case d.DB != nil:
		d.ImportRepo = importrepo.NewPostgresReservationRepository(d.DB.Pool)
	case d.SQLite != nil:
		repo, err := importrepo.NewGormReservationRepository(d.SQLite)
		if err != nil {
			return err
		}
		d.ImportRepo = repo
	default:
		d.ImportRepo = importrepo.NewMemoryReservationRepository()
	}

	d.Logger.Info("repositories initialized", "driver", d.Config.Database.Driver)
	return nil
}

// initExtraction picks the model provider and the response cache.
// A provider without an API key leaves the extractor nil; image uploads then fail per file.
func (d *Dependencies) initExtraction(ctx context.Context) error {
	ec := d.Config.Extraction

	var err error
	switch ec.Provider {
	case "gemini":
		d.Extractor, err = extraction.NewGeminiExtractor(ctx, extraction.GeminiOptions{
			APIKey:  ec.GeminiAPIKey,
			Model:   ec.GeminiModel,
			BaseURL: ec.GeminiBaseURL,
		})
	case "openai":
		d.Extractor, err = extraction.NewOpenAIExtractor(extraction.OpenAIOptions{
			APIKey:  ec.OpenAIAPIKey,
			Model:   ec.OpenAIModel,
			BaseURL: ec.OpenAIBaseURL,
		})
	}
	switch {
	case errors.Is(err, extraction.ErrMissingCredentials):
		d.Logger.Warn("extraction provider has no API key, image import disabled", "provider", ec.Provider)
		d.Extractor = nil
	case err != nil:
		return err
	}

	switch d.Config.Cache.Driver {
	case "memory":
		d.Cache = extraction.NewMemoryCache(d.Config.Cache.TTL, 10*time.Minute)
	case "redis":
		cache, err := extraction.NewRedisCache(ctx, d.Config.Redis.Addr, d.Config.Redis.Password, d.Config.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		d.Cache = cache
	}

	var opts []extraction.RunnerOption
	if d.Cache != nil {
		opts = append(opts, extraction.WithCache(d.Cache))
	}
	d.Runner = extraction.NewRunner(d.Extractor, extraction.RunnerConfig{
		Delay:       ec.Delay,
		Timeout:     ec.Timeout,
		MaxAttempts: ec.MaxAttempts,
		BaseBackoff: ec.BaseBackoff,
		MaxBackoff:  ec.MaxBackoff,
		CacheTTL:    d.Config.Cache.TTL,
	}, d.Logger, opts...)

	d.Logger.Info("extraction initialized", "provider", d.Runner.Provider(), "cache", d.Config.Cache.Driver)
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices(ctx context.Context) error {
	if d.Config.Auth.Enabled() {
		d.TokenManager = authservice.NewTokenManager([]byte(d.Config.Auth.JWTSecret), d.Config.Auth.TokenTTL)
	}
	d.AuthService = authservice.NewAuthService(d.Config.Auth.PasswordHash, d.TokenManager, d.Logger)

	d.ImportService = importservice.NewImportService(d.ImportRepo, d.Runner, importservice.Config{
		MaxParallel:  d.Config.Import.MaxParallel,
		MaxFileBytes: d.Config.Import.MaxFileBytes,
		TaxRate:      d.Config.Stats.TaxRate,
	}, d.Logger)

	if err := d.ImportService.LoadFromRepository(ctx); err != nil {
		return err
	}

	d.Logger.Info("services initialized", "reservations", d.ImportService.Len())
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.AuthHandler = authhandler.NewAuthHandler(d.AuthService)
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Logger)

	d.Logger.Info("handlers initialized")
	return nil
}

// Health checks the storage backend
func (d *Dependencies) Health(ctx context.Context) error {
	switch {
	case d.DB != nil:
		return d.DB.Health(ctx)
	case d.SQLite != nil:
		sqlDB, err := d.SQLite.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			d.Logger.Warn("failed to close cache", "error", err)
		}
	}
	if d.SQLite != nil {
		if sqlDB, err := d.SQLite.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
