package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/marketplace/catalog/app/catalog"
	"github.com/marketplace/catalog/app/categories"
	"github.com/marketplace/catalog/app/config"
	"github.com/marketplace/catalog/app/database"
	"github.com/marketplace/catalog/app/logging"
	"github.com/marketplace/catalog/app/server"
	"github.com/marketplace/catalog/app/storage"
	"github.com/marketplace/catalog/models"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "catalog:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("close database", zap.Error(err))
		}
	}()

	if cfg.DBAutoMigrate {
		if err := database.Migrate(db, cfg, log); err != nil {
			return err
		}
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}

	productRepo := models.NewProductsRepository(db)
	categoryRepo := models.NewCategoriesRepository(db)

	routerCfg := server.RouterConfig{
		Products:           catalog.NewCatalogHandler(productRepo, categoryRepo, store, log).WithPageSize(cfg.PageSize),
		Categories:         categories.NewCategoryHandler(categoryRepo, store, log),
		MediaURL:           cfg.MediaURL,
		AdminToken:         cfg.AdminToken,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             log,
	}
	if local, ok := store.(*storage.LocalStore); ok {
		routerCfg.Media = server.MediaFiles(local.Root())
	}
	if !cfg.AuthEnabled() {
		log.Warn("ADMIN_TOKEN is empty, write endpoints are unauthenticated")
	}

	srv := server.NewServer(server.NewRouter(routerCfg), server.Config{
		Addr:         cfg.AppAddr,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
		IdleTimeout:  cfg.AppIdleTimeout,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server started",
			zap.String("addr", srv.Addr()),
			zap.String("db_driver", cfg.DBDriver),
			zap.String("storage_driver", cfg.StorageDriver),
		)
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
		log.Info("received shutdown signal, stopping gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AppShutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}
	log.Info("HTTP server stopped")
	return nil
}
