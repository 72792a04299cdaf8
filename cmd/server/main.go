package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"blog-server/internal/auth"
	"blog-server/internal/config"
	apphttp "blog-server/internal/http"
	"blog-server/internal/repository/sqlite"
	"blog-server/internal/service"
	"blog-server/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}

	creds, err := auth.NewCredentials(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	if err != nil {
		logger.Fatalf("setup credentials: %v", err)
	}

	userService := service.NewUserService(userRepo, creds)

	avatarStore, err := buildAvatarStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup avatar store: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(userService, creds, avatarStore, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildAvatarStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.AvatarStore, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		logger.Infof("storing avatars in %s", cfg.Upload.Dir)
		return storage.NewLocalStore(cfg.Upload.Dir)
	case "s3":
		loadOpts := []func(*awscfg.LoadOptions) error{
			awscfg.WithRegion(cfg.Storage.Region),
		}
		if cfg.AWS.Profile != "" {
			loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
		}

		awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}

		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Storage.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
				o.UsePathStyle = true
			}
		})
		logger.Infof("storing avatars in s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
		return storage.NewS3Store(client, cfg.Storage.Bucket, cfg.Storage.KeyPrefix)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
