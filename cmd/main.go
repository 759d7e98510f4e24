// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"ysa-registration/internal/config"
	"ysa-registration/internal/handler"
	"ysa-registration/internal/logger"
	"ysa-registration/internal/repository"
	"ysa-registration/internal/service"
	"ysa-registration/internal/store"
	"ysa-registration/internal/validate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	// Remote document store. With no project configured every write lands
	// in the local fallback, which keeps development setups working.
	remote := store.NewFirestore(cfg.Firestore.ProjectID, cfg.Firestore.APIKey, "", zlog)
	if cfg.Firestore.ProjectID == "" {
		zlog.Warn("no Firestore project configured, running on the local fallback only")
	}

	local, err := newSnapshotStore(cfg, zlog)
	if err != nil {
		zlog.Fatal("fallback store", zap.Error(err))
	}

	regRepo := repository.NewRegistrations(remote, local, zlog)
	userRepo := repository.NewUsers(remote, zlog)

	bounds := validate.Bounds{MinYear: cfg.DOB.MinYear, MaxYear: cfg.DOB.MaxYear}
	regSvc := service.NewRegistration(regRepo, bounds, cfg.Capacity, zlog)
	authSvc := service.NewAuth(userRepo, zlog)

	router := handler.NewRouter(handler.New(regSvc, authSvc, zlog), zlog)

	// The feed keeps dashboard watch streams fed until shutdown.
	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()
	regRepo.StartFeed(feedCtx, time.Duration(cfg.PollIntervalSeconds)*time.Second)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // watch streams stay open indefinitely
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	stopFeed()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal("graceful shutdown failed", zap.Error(err))
	}
	zlog.Info("server stopped")
}

// newSnapshotStore selects the fallback backend: a JSON file on disk for
// single-node deployments, or Redis when the fallback must be shared.
func newSnapshotStore(cfg config.Config, zlog *zap.Logger) (store.SnapshotStore, error) {
	switch cfg.Fallback.Backend {
	case config.FallbackRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Fallback.RedisAddr,
			Password: cfg.Fallback.RedisPassword,
			DB:       cfg.Fallback.RedisDB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, err
		}
		zlog.Info("fallback store ready", zap.String("backend", "redis"), zap.String("addr", cfg.Fallback.RedisAddr))
		return store.NewRedisSnapshot(client), nil
	default:
		zlog.Info("fallback store ready", zap.String("backend", "file"), zap.String("dir", cfg.Fallback.DataDir))
		return store.NewFileSnapshot(cfg.Fallback.DataDir), nil
	}
}
