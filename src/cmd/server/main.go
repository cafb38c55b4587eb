package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"olimport/src/helper/env"
	"olimport/src/infra/postgres"
	"olimport/src/infra/redis"
	"olimport/src/repositories"
	"olimport/src/server"
	"olimport/src/services/authors"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.Provide(
			newLogger,
			newSQLClient,
			newRedisClient,
			newServer,
			newAuthorQueryRepository,
			newCachedAuthorRepository,
			newAuthorsService,
		),
		fx.Invoke(registerServerHooks),
	).Run()
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func newLogger() *slog.Logger {
	level := logLevels[env.GetString("LOG_LEVEL", "info")]

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return logger
}

func newSQLClient() (*pgxpool.Pool, error) {
	return postgres.NewPostgresClient(
		env.MustGetString("DB_HOST"),
		env.GetString("DB_PORT", "5432"),
		env.MustGetString("DB_NAME"),
		env.MustGetString("DB_USER"),
		env.MustGetString("DB_PASSWORD"),
		env.GetInt("DB_MAX_POOL_CONNECTIONS", 25),
	)
}

func newRedisClient() *redis.RedisClient {
	ttl := time.Duration(env.GetInt("REDIS_DEFAULT_TTL_SECONDS", 120)) * time.Second

	return redis.NewRedisClient(
		env.MustGetString("REDIS_HOSTS"),
		env.GetInt("REDIS_POOL_SIZE", 50),
		ttl,
	)
}

func newAuthorQueryRepository(pool *pgxpool.Pool) *repositories.AuthorQueryRepository {
	return repositories.NewAuthorQueryRepository(pool)
}

func newCachedAuthorRepository(
	authorQueryRepository *repositories.AuthorQueryRepository,
	redisClient *redis.RedisClient,
) *repositories.CachedAuthorRepository {
	return repositories.NewCachedAuthorRepository(authorQueryRepository, redisClient)
}

func newAuthorsService(
	cachedAuthorRepository *repositories.CachedAuthorRepository,
	authorQueryRepository *repositories.AuthorQueryRepository,
) *authors.AuthorsService {
	return authors.NewAuthorsService(cachedAuthorRepository, authorQueryRepository)
}

func newServer(
	logger *slog.Logger,
	authorsService *authors.AuthorsService,
) *server.Server {
	port := env.GetInt("SERVER_PORT", 8888)

	return server.NewServer(logger, port, authorsService)
}

func registerServerHooks(
	lc fx.Lifecycle,
	logger *slog.Logger,
	srv *server.Server,
	pool *pgxpool.Pool,
	redisClient *redis.RedisClient,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("Server failed: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Server forced to shutdown", "error", err)
				return err
			}

			pool.Close()
			if err := redisClient.Close(); err != nil {
				logger.Error("Failed to close redis client", "error", err)
			}

			logger.Info("Server exited gracefully")
			return nil
		},
	})
}
