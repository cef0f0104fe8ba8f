package main

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/anzecare/anzeguard/api/internal/assessment/application"
	"github.com/anzecare/anzeguard/api/internal/auth"
	"github.com/anzecare/anzeguard/api/internal/config"
	mongodoc "github.com/anzecare/anzeguard/api/internal/infrastructure/mongo"
	redisguard "github.com/anzecare/anzeguard/api/internal/infrastructure/redis"
	"github.com/anzecare/anzeguard/api/internal/logger"
	"github.com/anzecare/anzeguard/api/internal/report/pdf"
	"github.com/anzecare/anzeguard/api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format, "anzeguard-api")
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.Mongo.URI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		zlog.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	repo := mongodoc.NewProjectRepository(client.Database(cfg.Mongo.Database), cfg.Mongo.ProjectCollection)
	if err := repo.EnsureIndexes(ctx); err != nil {
		zlog.Warn("Failed to ensure project indexes", zap.Error(err))
	}

	deps := server.Dependencies{Logger: zlog, Mongo: client}

	var guard application.SubmissionGuard = application.NopGuard{}
	if cfg.Redis.Enabled() {
		rdb := redisguard.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		redisGuard := redisguard.NewSubmissionGuard(rdb, cfg.Redis.LockPrefix, cfg.Redis.LockTTL, zlog.Named("guard"))
		if err := redisGuard.Ping(ctx); err != nil {
			zlog.Warn("Redis unreachable at startup; saves will fail until it recovers", zap.Error(err))
		}
		guard = redisGuard
		deps.Redis = rdb
	} else {
		zlog.Info("Redis not configured; concurrent saves are not serialized")
	}
	deps.Projects = application.NewProjectService(repo, guard)

	authService, err := auth.NewService(cfg.Auth.PassphraseHash, auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL))
	if err != nil {
		zlog.Fatal("Failed to configure authentication", zap.Error(err))
	}
	deps.Auth = authService

	deps.Reports = pdf.NewComposer(fontLoader(cfg.Report), zlog.Named("report"))

	app := server.New(cfg, deps)
	if err := app.Run(); err != nil {
		zlog.Fatal("Server stopped with error", zap.Error(err))
	}
}

// fontLoader prefers a local font file and falls back to downloading one.
func fontLoader(cfg config.ReportConfig) pdf.FontLoader {
	switch {
	case cfg.FontPath != "":
		return pdf.NewCachedFontLoader(pdf.FileFontLoader{Path: cfg.FontPath})
	case cfg.FontURL != "":
		return pdf.NewCachedFontLoader(pdf.NewHTTPFontLoader(cfg.FontURL, cfg.FontTimeout))
	}
	return nil
}
