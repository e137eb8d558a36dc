// Package app wires the application together and runs the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"golang.org/x/sync/errgroup"

	myhttp "github.com/tmatsuo/go-shorty/internal/api/http"
	"github.com/tmatsuo/go-shorty/internal/config"
	pgstore "github.com/tmatsuo/go-shorty/internal/database/postgres"
	"github.com/tmatsuo/go-shorty/internal/service"
	"github.com/tmatsuo/go-shorty/migrations"
	"github.com/tmatsuo/go-shorty/pkg/postgres"
)

// Run builds the dependency graph and serves HTTP until ctx is canceled.
// Schema migrations run before the listener starts, so no request can ever
// observe a missing table.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := newLogger(cfg.Env)

	db, err := postgres.New(
		ctx,
		cfg.DatabaseURL,
		postgres.WithConnMaxIdleTime(cfg.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(migrations.FS, cfg.DatabaseURL); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	linkRepo := pgstore.NewLinkRepository(db)
	linkSvc := service.NewLinkService(linkRepo, logger.Logger)

	router, err := myhttp.NewRouter(logger, linkSvc, cfg)
	if err != nil {
		return fmt.Errorf("%s: failed to build router: %w", op, err)
	}

	server := &http.Server{
		Addr:           cfg.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", slog.String("addr", server.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

func newLogger(env string) *httplog.Logger {
	return httplog.NewLogger("shorty", httplog.Options{
		JSON:     env == config.EnvProd,
		LogLevel: logLevel(env),
		Concise:  env != config.EnvProd,
	})
}

func logLevel(env string) slog.Level {
	if env == config.EnvProd {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}
