package main

import (
	"context"
	"fmt"
	"time"

	"github.com/liliang-cn/askcite/internal/citation"
	"github.com/liliang-cn/askcite/internal/config"
	"github.com/liliang-cn/askcite/internal/repository"
	"github.com/liliang-cn/askcite/internal/resolver"
	"github.com/liliang-cn/askcite/internal/service"
	"github.com/liliang-cn/askcite/internal/stream"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// app holds the wired components shared by serve and compose
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *repository.DB
	cache     *resolver.RedisCache
	composer  *citation.Composer
	documents *service.DocumentService
	answers   *service.AnswerService
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Log.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	documentRepo := repository.NewDocumentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	documents := service.NewDocumentService(documentRepo, sessionRepo)

	opts := cfg.ResolverOptions()

	// Page links come from a remote document backend when one is
	// configured, otherwise from the local registry
	var lookup resolver.LinkLookup = documents
	if opts.BackendBaseURL != "" {
		lookup = resolver.NewHTTPLookup(opts.BackendBaseURL, nil)
	}

	a := &app{cfg: cfg, logger: logger, db: db, documents: documents}

	var linkCache resolver.LinkCache
	if cfg.Cache.RedisAddr != "" {
		a.cache = connectCache(cfg, logger)
		if a.cache != nil {
			linkCache = a.cache
		}
	}

	unit, err := citation.ParseOffsetUnit(cfg.Engine.OffsetUnit)
	if err != nil {
		db.Close()
		return nil, err
	}

	a.composer = citation.NewComposer(
		resolver.New(lookup, linkCache, opts, logger.Named("resolver")),
		citation.Options{OffsetUnit: unit},
		logger.Named("composer"),
	)
	a.answers = service.NewAnswerService(
		a.composer,
		stream.NewEmitter(cfg.StreamPace(), logger.Named("stream")),
		sessionRepo,
		logger,
	)

	return a, nil
}

// connectCache returns nil when Redis is unreachable; resolution then
// runs without the cache
func connectCache(cfg *config.Config, logger *zap.Logger) *resolver.RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, running without link cache",
			zap.String("addr", cfg.Cache.RedisAddr),
			zap.Error(err),
		)
		client.Close()
		return nil
	}

	logger.Info("Link cache enabled", zap.String("addr", cfg.Cache.RedisAddr))
	return resolver.NewRedisCache(client, cfg.CacheTTL(), cfg.Cache.Prefix, logger.Named("cache"))
}

func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	a.db.Close()
}
