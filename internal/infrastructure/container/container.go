// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"net/http"

	"github.com/dspaces1/whatEatBE/internal/application/importer"
	"github.com/dspaces1/whatEatBE/internal/application/planner"
	"github.com/dspaces1/whatEatBE/internal/application/recipe"
	"github.com/dspaces1/whatEatBE/internal/application/user"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/ai/openai"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/config"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/http/apiserver"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/monitoring"
	postgresrepo "github.com/dspaces1/whatEatBE/internal/infrastructure/persistence/postgres"
	redisrepo "github.com/dspaces1/whatEatBE/internal/infrastructure/persistence/redis"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/security"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/storage"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/webfetch"
	"github.com/dspaces1/whatEatBE/internal/ports/inbound"
	"github.com/dspaces1/whatEatBE/internal/ports/outbound"
	"github.com/dspaces1/whatEatBE/pkg/healthcheck"
	"github.com/dspaces1/whatEatBE/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// APIModule wires everything the JSON API server needs.
var APIModule = fx.Options(
	CoreModule,
	HTTPModule,
	fx.Invoke(registerAPILifecycle),
)

// WorkerModule wires the background import worker.
var WorkerModule = fx.Options(
	CoreModule,
	fx.Provide(newImportWorker),
	fx.Invoke(registerWorkerLifecycle),
)

// CoreModule provides config, logging, persistence and the
// application services shared by every process.
var CoreModule = fx.Options(
	ConfigModule,
	LoggerModule,
	DatabaseModule,
	RedisModule,
	RepositoryModule,
	SecurityModule,
	OutboundModule,
	ServiceModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load("")
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// DatabaseModule provides the pgx connection pool
var DatabaseModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (*pgxpool.Pool, error) {
		return postgresrepo.NewPool(context.Background(), cfg, log)
	},
)

// RedisModule provides the Redis client
var RedisModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
		return redisrepo.NewClient(context.Background(), cfg, log)
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(
		postgresrepo.NewRecipeRepository,
		fx.As(new(outbound.RecipeRepository)),
	),
	fx.Annotate(
		postgresrepo.NewUserRepository,
		fx.As(new(outbound.UserRepository)),
	),
	fx.Annotate(
		postgresrepo.NewImportJobRepository,
		fx.As(new(outbound.ImportJobRepository)),
	),
	fx.Annotate(
		postgresrepo.NewMealPlanRepository,
		fx.As(new(outbound.MealPlanRepository)),
	),
	fx.Annotate(
		redisrepo.NewCacheRepository,
		fx.As(new(outbound.CacheRepository)),
	),
	func(client *redis.Client, cfg *config.Config, log *zap.Logger) outbound.ImportQuota {
		return redisrepo.NewImportQuota(client, cfg.Import.DailyQuota, log)
	},
)

// SecurityModule provides authentication
var SecurityModule = fx.Provide(
	security.NewAuthService,
)

// OutboundModule provides the external adapters: page fetcher, AI
// client and media storage.
var OutboundModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) outbound.PageFetcher {
		return webfetch.NewFetcher(webfetch.Options{
			Timeout:      cfg.Import.FetchTimeout,
			MaxBodyBytes: cfg.Import.MaxBodyBytes,
			MaxRedirects: cfg.Import.MaxRedirects,
			MaxURLLength: cfg.Import.MaxURLLength,
			UserAgent:    cfg.Import.UserAgent,
		}, log)
	},
	func(cfg *config.Config, log *zap.Logger) outbound.AIService {
		return openai.NewClient(cfg.AI, log)
	},
	func(cfg *config.Config, log *zap.Logger) (outbound.StorageService, error) {
		if cfg.Storage.Bucket == "" {
			log.Info("No storage bucket configured, media uploads disabled")
			return nil, nil
		}
		return storage.NewS3Storage(cfg.Storage, log)
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	recipe.NewRecipeService,
	user.NewUserService,

	func(fetcher outbound.PageFetcher, ai outbound.AIService, cfg *config.Config, log *zap.Logger) *importer.Pipeline {
		return importer.NewPipeline(fetcher, ai, cfg.Import.AITextCapChars, log)
	},
	fx.Annotate(
		func(pipeline *importer.Pipeline, quota outbound.ImportQuota, jobs outbound.ImportJobRepository, cfg *config.Config, log *zap.Logger) *importer.Service {
			return importer.NewService(pipeline, quota, cfg.Import.DailyQuota, jobs, log)
		},
		fx.As(new(inbound.ImportService)),
	),
	func(plans outbound.MealPlanRepository, recipes outbound.RecipeRepository, ai outbound.AIService, cfg *config.Config, log *zap.Logger) *planner.Service {
		return planner.NewService(plans, recipes, ai, cfg.Planner.MealTypes, cfg.Planner.InterCallDelay, log)
	},
	fx.Annotate(
		func(s *planner.Service) *planner.Service { return s },
		fx.As(new(inbound.MealPlanService)),
	),
)

// HTTPModule provides the API server and its health checks
var HTTPModule = fx.Provide(
	monitoring.NewTracingProvider,
	func(pool *pgxpool.Pool, client *redis.Client, cfg *config.Config, log *zap.Logger) *healthcheck.HealthCheck {
		hc := healthcheck.New(cfg.App.Version, log)
		hc.Register("database", healthcheck.NewDatabaseChecker(pool))
		hc.Register("redis", healthcheck.NewRedisChecker(client))
		return hc
	},
	func(
		recipes inbound.RecipeService,
		imports inbound.ImportService,
		plans inbound.MealPlanService,
		users *user.UserService,
		auth *security.AuthService,
		store outbound.StorageService,
	) apiserver.Services {
		return apiserver.Services{
			Recipes:  recipes,
			Imports:  imports,
			MealPlan: plans,
			Users:    users,
			Auth:     auth,
			Storage:  store,
		}
	},
	apiserver.New,
)

func newImportWorker(
	jobs outbound.ImportJobRepository,
	recipes outbound.RecipeRepository,
	pipeline *importer.Pipeline,
	cfg *config.Config,
	log *zap.Logger,
) *importer.Worker {
	return importer.NewWorker(jobs, recipes, pipeline, cfg.Import.WorkerInterval, log)
}

// registerAPILifecycle starts and stops the HTTP server with its
// backing connections.
func registerAPILifecycle(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	pool *pgxpool.Pool,
	client *redis.Client,
	tracing *monitoring.TracingProvider,
	server *apiserver.APIServer,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting application",
				zap.String("name", cfg.App.Name),
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			go func() {
				if err := server.Start(); err != nil && err != http.ErrServerClosed {
					log.Fatal("Failed to start HTTP server", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down application")

			if err := server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			if err := tracing.Shutdown(ctx); err != nil {
				log.Error("Failed to flush traces", zap.Error(err))
			}

			pool.Close()
			if err := client.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}

// registerWorkerLifecycle runs the import worker until shutdown.
func registerWorkerLifecycle(
	lc fx.Lifecycle,
	log *zap.Logger,
	pool *pgxpool.Pool,
	client *redis.Client,
	worker *importer.Worker,
) {
	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := worker.Run(runCtx); err != nil && err != context.Canceled {
					log.Error("Import worker stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			pool.Close()
			if err := client.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
			_ = log.Sync()
			return nil
		},
	})
}
