package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"studioledger/backend/internal/cache"
	"studioledger/backend/internal/config"
	"studioledger/backend/internal/httpapi"
	"studioledger/backend/internal/lock"
	"studioledger/backend/internal/logging"
	"studioledger/backend/internal/service"
	"studioledger/backend/internal/store"
	"studioledger/backend/internal/store/memory"
	pgstore "studioledger/backend/internal/store/postgres"
)

const (
	seedLockKey = "seed"
	seedLockTTL = 30 * time.Second
)

func main() {
	cfg := config.Load()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := validateSecurityConfig(cfg); err != nil {
		logger.WithError(err).Fatal("invalid security configuration")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Fatal("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback")
		}
		if cfg.MigrateOnStart {
			if err := pg.Migrate(ctx); err != nil {
				logger.WithError(err).Fatal("migrations failed")
			}
		}
		repo = pg
		closers = append(closers, pg.Close)
		logger.Info("repository: postgres")
	} else {
		repo = memory.New()
		logger.Info("repository: in-memory")
	}

	var (
		revocations cache.RevocationStore = cache.NewMemoryRevocations()
		locker      lock.Locker           = lock.NewLocal()
	)
	if cfg.RedisAddr != "" {
		client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		redisRevocations := cache.NewRedisRevocations(client)
		if err := redisRevocations.Ping(ctx); err != nil {
			logger.WithError(err).Warn("redis unavailable, using in-process revocations and locks")
			_ = client.Close()
		} else {
			revocations = redisRevocations
			locker = lock.NewRedis(client)
			closers = append(closers, client.Close)
			logger.Info("cache: redis")
		}
	} else {
		logger.Info("cache: in-memory")
	}

	svc := service.New(repo, logger)
	auth := httpapi.NewAuthManager(httpapi.AuthConfig{
		Secret:         cfg.AuthSecret,
		TokenTTL:       time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute,
		SessionDataURL: cfg.SessionDataURL,
		PortalURL:      cfg.AuthPortalURL,
		AppURL:         cfg.AppURL,
	}, repo, revocations, logger)

	if err := bootstrap(ctx, cfg, locker, svc, auth, logger); err != nil {
		logger.WithError(err).Fatal("startup seeding failed")
	}

	api := httpapi.New(svc, auth, logger, httpapi.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		SecureCookies:  strings.HasPrefix(strings.ToLower(cfg.AppURL), "https://"),
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      time.Duration(cfg.RequestTimeoutSeconds+5) * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.Address()).Info("studio ledger backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.WithError(err).Warn("close error")
		}
	}

	logger.Info("server stopped")
}

// bootstrap seeds default partners and the admin account. Replicas starting
// together serialize on the seed lock so only one of them writes.
func bootstrap(ctx context.Context, cfg config.Config, locker lock.Locker, svc *service.Service, auth *httpapi.AuthManager, logger logrus.FieldLogger) error {
	if !cfg.SeedDefaultPartners && cfg.SeedAdminEmail == "" {
		return nil
	}

	release, err := locker.Acquire(ctx, seedLockKey, seedLockTTL)
	if err != nil {
		return fmt.Errorf("acquire seed lock: %w", err)
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			logger.WithError(err).Warn("release seed lock")
		}
	}()

	if cfg.SeedDefaultPartners {
		if _, err := svc.SeedDefaultPartners(ctx); err != nil {
			return err
		}
	}
	if cfg.SeedAdminEmail != "" {
		created, err := auth.EnsureAdmin(ctx, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if created {
			logger.WithField("email", cfg.SeedAdminEmail).Info("admin account created")
		}
	}
	return nil
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.SeedAdminEmail == "" {
		return nil
	}
	if len(cfg.SeedAdminPassword) < 12 {
		return fmt.Errorf("SEED_ADMIN_PASSWORD must be set and at least 12 characters")
	}
	if err := validatePasswordStrength(cfg.SeedAdminPassword); err != nil {
		return fmt.Errorf("SEED_ADMIN_PASSWORD is too weak: %w", err)
	}
	return nil
}

// validatePasswordStrength rejects passwords that repeat one character, run
// sequentially (ascending or descending), or appear on a known-weak list.
func validatePasswordStrength(password string) error {
	known := map[string]bool{
		"password1234": true, "admin1234567": true, "changeme1234": true,
		"qwertyuiop12": true, "letmein12345": true, "studioledger": true,
	}
	if known[strings.ToLower(password)] {
		return fmt.Errorf("common password not allowed")
	}

	allSame := true
	for i := 1; i < len(password); i++ {
		if password[i] != password[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("single-character password not allowed")
	}

	ascending, descending := true, true
	for i := 1; i < len(password); i++ {
		diff := int(password[i]) - int(password[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	if ascending || descending {
		return fmt.Errorf("sequential password not allowed")
	}

	return nil
}
