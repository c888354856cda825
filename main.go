package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tasktracker/backend/internal/config"
	"github.com/tasktracker/backend/internal/db"
	"github.com/tasktracker/backend/internal/handler"
	"github.com/tasktracker/backend/internal/httpserver"
	"github.com/tasktracker/backend/internal/logutil"
	"github.com/tasktracker/backend/internal/service"
	"github.com/urfave/cli/v2"
)

type store interface {
	service.UserRepo
	service.TaskRepo
}

// @title taskTracker API
// @version 1.0
// @description Per-user task tracker with cookie or bearer token sessions.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := &cli.App{
		Name:  "tasktracker",
		Usage: "Per-user task tracker API",
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("application failed")
		os.Exit(1)
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "store",
				Usage: "Backing store: postgres or memory",
				Value: "postgres",
			},
			&cli.StringFlag{
				Name:  "bind",
				Usage: "Host to listen on; the port comes from PORT",
				Value: "",
			},
		},
		Action: func(appCtx *cli.Context) error {
			cfg := config.Load()
			logger := logutil.New(cfg.Log)
			log.Logger = logger
			ctx := logutil.WithLogger(appCtx.Context, logger)

			gin.SetMode(cfg.Server.GinMode)

			st, cleanup, err := openStore(ctx, appCtx.String("store"), cfg.Postgres)
			if err != nil {
				return err
			}
			defer cleanup()

			authService, err := service.NewAuthService(st, cfg.Auth)
			if err != nil {
				return err
			}
			taskService := service.NewTaskService(st)

			router := handler.NewRouter(handler.RouterConfig{
				Auth:           authService,
				Tasks:          taskService,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Logger:         logger,
			})

			return httpserver.Serve(ctx, net.JoinHostPort(appCtx.String("bind"), cfg.Server.Port), router)
		},
	}
}

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations and exit",
		Action: func(appCtx *cli.Context) error {
			cfg := config.Load()
			logger := logutil.New(cfg.Log)
			ctx := logutil.WithLogger(appCtx.Context, logger)

			pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.NewPostgres(pool).Migrate(ctx); err != nil {
				return err
			}
			logger.Info().Msg("migrations applied")
			return nil
		},
	}
}

func openStore(ctx context.Context, kind string, cfg config.PostgresConfig) (store, func(), error) {
	logger := logutil.GetOrDefault(ctx)
	switch kind {
	case "memory":
		logger.Warn().Msg("using in-memory store, data is lost on exit")
		return db.NewMemory(), func() {}, nil
	case "postgres", "":
		pool, err := db.NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		pg := db.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info().Str("store", "postgres").Msg("database ready")
		return pg, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", kind)
	}
}
