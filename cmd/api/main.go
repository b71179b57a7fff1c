package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unibague-gradework/orion-program/internal/api"
	"github.com/unibague-gradework/orion-program/internal/audit"
	mongoinfra "github.com/unibague-gradework/orion-program/internal/infrastructure/db/mongo"
	redisinfra "github.com/unibague-gradework/orion-program/internal/infrastructure/db/redis"
	"github.com/unibague-gradework/orion-program/internal/pkg/config"
	"github.com/unibague-gradework/orion-program/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := mongoinfra.Connect(ctx, mongoinfra.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(shutdownCtx)
	}()

	if err := mongoinfra.NewProgramRepository(db).EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure mongodb indexes")
	}

	rdb, err := redisinfra.Connect(ctx, redisinfra.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	trail := audit.NewTrail(cfg.AuditBuffer, audit.NewMongoSink(db), log)
	trail.Start(ctx)

	e := api.NewRouter(db, rdb, cfg, trail, log)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("orion-program listening")
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Info().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
