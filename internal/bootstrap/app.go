package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"visapath-backend/internal/chat"
	"visapath-backend/internal/oracle"
	"visapath-backend/internal/oracle/openai"
	"visapath-backend/internal/research"
	"visapath-backend/internal/scoring"
	"visapath-backend/internal/sessions"
	"visapath-backend/internal/shared/config"
	"visapath-backend/internal/shared/server"
	"visapath-backend/internal/shared/storage/cache"
	"visapath-backend/internal/shared/storage/db"
	"visapath-backend/internal/shared/storage/object"
	objectlocal "visapath-backend/internal/shared/storage/object/local"
	objects3 "visapath-backend/internal/shared/storage/object/s3"
	"visapath-backend/internal/shared/telemetry"
	"visapath-backend/internal/visatypes"
)

// App holds the wired application and the resources it owns.
type App struct {
	Config config.Config
	Router *gin.Engine

	database *sql.DB
	cache    *cache.Client
}

// Build wires repositories, services and handlers from configuration.
// Without DATABASE_URL the app runs on in-memory stores outside production.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := db.RunMigrations(ctx, database); err != nil {
			database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		app.database = database
	} else if cfg.Env == "production" {
		return nil, fmt.Errorf("DATABASE_URL is required in production")
	} else {
		telemetry.Warn("bootstrap.memory_stores", map[string]any{
			"env": cfg.Env,
		})
	}

	if cfg.RedisAddr != "" {
		app.cache = cache.New(cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := app.cache.Ping(ctx); err != nil {
			telemetry.Warn("bootstrap.redis_unavailable", map[string]any{
				"addr":  cfg.RedisAddr,
				"error": err.Error(),
			})
		}
	}

	archive, err := buildObjectStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	catalogRepo, err := buildCatalogRepo(ctx, cfg, app.database)
	if err != nil {
		app.Close()
		return nil, err
	}

	var sessionRepo sessions.Repo
	var researchRepo research.Repo
	if app.database != nil {
		sessionRepo = &sessions.PGRepo{DB: app.database}
		researchRepo = &research.PGRepo{DB: app.database}
	} else {
		sessionRepo = sessions.NewMemoryRepo()
		researchRepo = research.NewMemoryRepo()
	}

	oracleClient := buildOracle(cfg)

	scorer := &scoring.Scorer{Oracle: oracleClient, Archive: archive}
	sessionSvc := &sessions.Service{Repo: sessionRepo}
	researchSvc := research.NewService(catalogRepo, researchRepo, oracleClient, app.cache, archive)
	chatSvc := &chat.Service{Oracle: oracleClient, Sessions: sessionSvc}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:   cfg,
		DB:       app.database,
		Cache:    app.cache,
		Scoring:  scoring.NewHandler(scorer, catalogRepo, &sessionSaver{svc: sessionSvc}),
		Sessions: sessions.NewHandler(sessionSvc),
		Research: research.NewHandler(researchSvc),
		Chat:     chat.NewHandler(chatSvc),
	})

	return app, nil
}

// Close releases database and cache connections.
func (a *App) Close() {
	if a.database != nil {
		a.database.Close()
	}
	if a.cache != nil {
		a.cache.Close()
	}
}

func buildObjectStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	if cfg.ObjectStoreType == "s3" {
		store, err := objects3.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, fmt.Errorf("init s3 store: %w", err)
		}
		return store, nil
	}
	return objectlocal.New(cfg.LocalStoreDir), nil
}

func buildCatalogRepo(ctx context.Context, cfg config.Config, database *sql.DB) (visatypes.Repo, error) {
	if database != nil {
		return &visatypes.PGRepo{DB: database}, nil
	}
	repo := visatypes.NewMemoryRepo()
	if cfg.CatalogFile != "" {
		count, err := visatypes.SeedFromFile(ctx, repo, cfg.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		telemetry.Info("bootstrap.catalog_seeded", map[string]any{
			"file":  cfg.CatalogFile,
			"count": count,
		})
	}
	return repo, nil
}

func buildOracle(cfg config.Config) oracle.Client {
	if cfg.OracleProvider != "openai" {
		telemetry.Warn("bootstrap.oracle_placeholder", map[string]any{
			"provider": cfg.OracleProvider,
		})
		return oracle.PlaceholderClient{}
	}
	client, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.OracleModel)
	if err != nil {
		telemetry.Warn("bootstrap.oracle_placeholder", map[string]any{
			"provider": cfg.OracleProvider,
			"error":    err.Error(),
		})
		return oracle.PlaceholderClient{}
	}
	return client
}

// sessionSaver adapts the sessions service to the scoring handler's narrow
// save contract.
type sessionSaver struct {
	svc *sessions.Service
}

func (s *sessionSaver) SaveResult(ctx context.Context, userID string, profile scoring.ApplicantProfile, result scoring.Result, title string) (string, error) {
	session, err := s.svc.Create(ctx, userID, profile, result, title)
	if err != nil {
		return "", err
	}
	return session.ID, nil
}
