package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JunoAX/schoolbag-go/internal/auth"
	"github.com/JunoAX/schoolbag-go/internal/config"
	"github.com/JunoAX/schoolbag-go/internal/handlers"
	"github.com/JunoAX/schoolbag-go/internal/schedule"
	"github.com/JunoAX/schoolbag-go/internal/storage"
)

var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	if env := os.Getenv("SCHOOLBAG_CONFIG"); env != "" && *configPath == "config.yaml" {
		*configPath = env
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.Server.DevMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to open document store", zap.Error(err))
	}
	defer store.Close()

	coord := schedule.NewCoordinator(store, cfg.Schedule.DefaultSwitchoverTime, logger)
	if err := coord.Refresh(ctx); err != nil {
		logger.Fatal("initial refresh failed", zap.Error(err))
	}

	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	handlers.RegisterRoutes(r, handlers.Deps{
		Coordinator:   coord,
		Authenticator: auth.NewAuthenticator(cfg.Auth.Principals),
		JWT:           auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Uploads:       cfg.Uploads,
		Log:           logger,
		Version:       Version,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// Periodic refresh keeps the projection current across the switchover
	// time and the day boundary even when nothing is mutated.
	g.Go(func() error {
		err := coord.Run(gctx, cfg.Schedule.RefreshInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}

	logger.Info("server exited")
}

func buildLogger(devMode bool) (*zap.Logger, error) {
	if devMode {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
