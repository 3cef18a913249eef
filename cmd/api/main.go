// Command api serves the marina HTTP API.
//
//	@title						Marina API
//	@version					1.0
//	@description				Owners, boats and harbours behind token authentication and role checks.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/marina/marina-system/internal/api"
	"github.com/marina/marina-system/internal/api/handler"
	"github.com/marina/marina-system/internal/core/ports"
	"github.com/marina/marina-system/internal/core/service"
	mongostore "github.com/marina/marina-system/internal/infrastructure/db/mongo"
	redisstore "github.com/marina/marina-system/internal/infrastructure/db/redis"
	"github.com/marina/marina-system/internal/infrastructure/db/sqlite"
	"github.com/marina/marina-system/internal/infrastructure/seed"
	"github.com/marina/marina-system/internal/pkg/config"
	"github.com/marina/marina-system/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "marina: %v\n", err)
		os.Exit(1)
	}
}

// store bundles the repositories of the selected driver.
type store struct {
	auth   ports.AuthRepository
	marina ports.MarinaRepository
	pinger handler.Pinger
	close  func(ctx context.Context) error
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment(),
		File:   cfg.LogFile,
	})

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Error().Err(err).Msg("closing store")
		}
	}()

	pingers := map[string]handler.Pinger{"store": st.pinger}

	var throttle service.LoginThrottle
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		throttle = redisstore.NewLoginThrottle(rdb, cfg.Auth.LoginMaxFailures, cfg.Auth.LoginLockout)
		pingers["redis"] = redisstore.Pinger{Client: rdb}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("login throttle enabled")
	}

	tokens := service.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenIssuer, cfg.Auth.TokenTTL, nil)
	authService := service.NewAuthService(
		st.auth,
		service.NewCredentialStore(st.auth, bcrypt.DefaultCost),
		tokens,
		throttle,
		log.With().Str("component", "auth").Logger(),
	)
	marinaService := service.NewMarinaService(st.marina, log.With().Str("component", "marina").Logger())

	if cfg.SeedFile != "" {
		f, err := seed.Load(cfg.SeedFile)
		if err != nil {
			return err
		}
		if err := seed.Apply(ctx, f, authService, marinaService, log); err != nil {
			return err
		}
	}

	e := api.NewRouter(api.Dependencies{
		Auth:    authService,
		Tokens:  tokens,
		Marina:  marinaService,
		Pingers: pingers,
		Logger:  log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("marina api listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		repo := mongostore.NewMarinaRepository(client, db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("using mongo store")
		return &store{
			auth:   mongostore.NewAuthRepository(db),
			marina: repo,
			pinger: repo,
			close:  client.Disconnect,
		}, nil
	default:
		db, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		repo := sqlite.NewMarinaRepository(db)
		log.Info().Str("path", cfg.Store.SQLitePath).Msg("using sqlite store")
		return &store{
			auth:   sqlite.NewAuthRepository(db),
			marina: repo,
			pinger: repo,
			close:  func(context.Context) error { return db.Close() },
		}, nil
	}
}
