package main

import (
	"context"
	"errors"

	"kh-travel-backend/internal/config"
	"kh-travel-backend/internal/infrastructure/database"
	"kh-travel-backend/internal/interfaces/router"
	"kh-travel-backend/internal/pkg/logging"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		fx.Provide(config.Load),
		fx.Invoke(SetupLogging),
		fx.Provide(router.CreateApp),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func SetupLogging(cfg *config.Config) {
	logging.Setup(cfg.LogLevel, cfg.IsProduction())
}

// StartServer verifies Postgres and Redis, then serves until fx stops.
func StartServer(lc fx.Lifecycle, cfg *config.Config, app *fiber.App, db *gorm.DB, rdb *redis.Client) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if db != nil {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				if err := sqlDB.PingContext(ctx); err != nil {
					return errors.New("postgres connection failed: " + err.Error())
				}
				log.Info().Msg("Postgres connected")
			}
			if rdb != nil {
				if err := rdb.Ping(ctx).Err(); err != nil {
					return errors.New("redis connection failed: " + err.Error())
				}
				log.Info().Msg("Redis connected")
			}

			go func() {
				log.Info().Str("port", cfg.Port).Msg("Server running")
				log.Info().Msgf("Health check: http://localhost:%s/health/json", cfg.Port)
				if err := app.Listen(":" + cfg.Port); err != nil {
					log.Fatal().Err(err).Msg("Failed to start server")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Stopping HTTP server")
			err := app.ShutdownWithContext(ctx)
			if db != nil {
				if cerr := database.Close(db); cerr != nil && err == nil {
					err = cerr
				}
			}
			if rdb != nil {
				if cerr := rdb.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}
			return err
		},
	})
}
