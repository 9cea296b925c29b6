package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resume-builder/internal/artifacts"
	"resume-builder/internal/cache"
	"resume-builder/internal/generation"
	"resume-builder/internal/llm"
	"resume-builder/internal/llm/gemini"
	"resume-builder/internal/llm/openai"
	"resume-builder/internal/queue"
	"resume-builder/internal/resumes"
	"resume-builder/internal/services/health"
	"resume-builder/internal/shared/config"
	"resume-builder/internal/shared/server"
	"resume-builder/internal/shared/storage/db"
	"resume-builder/internal/shared/storage/object"
	localstore "resume-builder/internal/shared/storage/object/local"
	s3store "resume-builder/internal/shared/storage/object/s3"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/users"
)

// App holds shared dependencies and the HTTP router.
type App struct {
	Config         config.Config
	Router         *gin.Engine
	DB             *sql.DB
	Redis          *redis.Client
	Store          object.ObjectStore
	Artifacts      *artifacts.Store
	Cache          cache.Cache
	Events         queue.Client
	Provider       *llm.Router
	Gateway        *generation.Gateway
	UsersRepo      users.Repo
	ResumesRepo    resumes.Repo
	UsersService   *users.Service
	ResumesService *resumes.Service
	Health         *health.Service
}

// Build prepares every dependency and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	redisClient, volatile, err := buildCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	events, err := buildEvents(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider, err := buildProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Redis:     redisClient,
		Store:     store,
		Artifacts: artifacts.New(store),
		Cache:     volatile,
		Events:    events,
		Provider:  provider,
		Health:    health.NewService(),
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Health:        app.Health,
		UserHandler:   users.NewHandler(app.UsersService),
		ResumeHandler: resumes.NewHandler(app.ResumesService),
	})
	return app, nil
}

// Close releases pooled connections.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil && !db.IsLambdaRuntime() {
		_ = a.DB.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildCache(ctx context.Context, cfg config.Config) (*redis.Client, cache.Cache, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: REDIS_URL empty; using in-process cache")
			return nil, cache.NewMemory(cfg.MarkupCacheTTL, cfg.SessionTTL), nil
		}
		return nil, nil, fmt.Errorf("REDIS_URL is required")
	}
	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return client, cache.NewRedis(client, cfg.MarkupCacheTTL, cfg.SessionTTL), nil
}

func buildEvents(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.EventsQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.EventsQueueURL)
}

func buildProvider(ctx context.Context, cfg config.Config) (*llm.Router, error) {
	router := llm.NewRouter(cfg.LLMDefaultProvider)
	if key := strings.TrimSpace(cfg.OpenAIAPIKey); key != "" {
		client, err := openai.NewClient(key)
		if err != nil {
			return nil, err
		}
		router.Register("openai", client)
	}
	if key := strings.TrimSpace(cfg.GeminiAPIKey); key != "" {
		client, err := gemini.NewClient(ctx, key)
		if err != nil {
			return nil, err
		}
		router.Register("gemini", client)
	}
	return router, nil
}

// LoadInstructions returns the catalogue named by LLM_INSTRUCTIONS_FILE, or the embedded one.
func LoadInstructions(cfg config.Config) (llm.Instructions, error) {
	path := strings.TrimSpace(cfg.InstructionsFile)
	if path == "" {
		return llm.DefaultInstructions()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return llm.Instructions{}, fmt.Errorf("read instructions %s: %w", path, err)
	}
	return llm.ParseInstructions(raw)
}

func buildServices(app *App) error {
	if app.DB != nil {
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.ResumesRepo = &resumes.PGRepo{DB: app.DB}
		app.Health.Register("database", app.DB.PingContext)
	} else {
		app.UsersRepo = users.NewMemoryRepo()
		app.ResumesRepo = resumes.NewMemoryRepo()
	}
	if app.Redis != nil {
		app.Health.Register("cache", func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		})
	}

	instructions, err := LoadInstructions(app.Config)
	if err != nil {
		return err
	}
	gateway, err := generation.NewGateway(app.Provider, app.Cache, app.Artifacts, generation.Config{
		Models:       app.Config.LLMModels,
		Instructions: instructions,
	})
	if err != nil {
		return err
	}
	app.Gateway = gateway

	app.UsersService = users.NewService(app.UsersRepo)
	app.ResumesService = resumes.NewService(app.ResumesRepo, app.UsersService, gateway, app.Artifacts, app.Events)
	if app.UsersService == nil || app.ResumesService == nil {
		return errors.New("failed to initialize services")
	}

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          app.Config.Env,
		"object_store": app.Config.ObjectStoreType,
		"database":     app.DB != nil,
		"redis":        app.Redis != nil,
		"events":       app.Events != nil,
		"models":       app.Config.LLMModels,
	})
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
