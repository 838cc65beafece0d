// Command boardgame serves the two-player board game backend.
//
//	boardgame [serve]    run the HTTP API and websocket hub (default)
//	boardgame migrate    create the database schema and exit
//
// Settings come from flags, the environment or a .env file; see config.Flags.
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

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/tin-auppati/boardgame-backend/api"
	"github.com/tin-auppati/boardgame-backend/config"
	"github.com/tin-auppati/boardgame-backend/game"
	"github.com/tin-auppati/boardgame-backend/realtime"
	"github.com/tin-auppati/boardgame-backend/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cmd := &cli.Command{
		Name:   "boardgame",
		Usage:  "tic-tac-toe and gomoku backend",
		Flags:  config.Flags(),
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create missing tables and exit",
				Action: migrate,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cli.Command) (config.Config, *zap.Logger, error) {
	cfg := config.FromCommand(cmd)
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	log, err := cfg.Logger()
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, closeStore, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := game.NewService(store, game.WithLogger(log.Named("game")))

	hub := realtime.NewHub(log.Named("ws"), cfg.CORSOrigins)
	go hub.Run()
	defer hub.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(svc, hub, log.Named("http"), cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("db_driver", cfg.DBDriver))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func migrate(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.DBDriver == config.DriverMemory {
		log.Info("memory driver has no schema")
		return nil
	}

	db, err := storage.Connect(ctx, cfg.DBDriver, cfg.DSN(), cfg.DBConnectAttempts, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.Migrate(ctx, db, cfg.DBDriver); err != nil {
		return err
	}
	log.Info("schema up to date", zap.String("driver", cfg.DBDriver))
	return nil
}
