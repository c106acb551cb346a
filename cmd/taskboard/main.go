package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"taskboard/internal/api"
	"taskboard/internal/config"
	"taskboard/internal/observability/alerting"
	"taskboard/internal/observability/metrics"
	"taskboard/internal/task"
	"taskboard/pkg/logger"
)

// version 在构建时通过 -ldflags "-X main.version=..." 注入。
var version = "dev"

// main 是 TaskBoard 服务的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatalf("taskboard 运行失败: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "taskboard",
		Usage:   "a small task list service backed by SQLite",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{config.EnvConfigPath},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file loaded before reading the environment",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "initialise storage and serve the HTTP API",
				Action: serve,
			},
			{
				Name:   "initdb",
				Usage:  "create the tasks table if it does not exist",
				Action: initDB,
			},
			{
				Name:  "version",
				Usage: "print the build version",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, version)
					return nil
				},
			},
		},
		DefaultCommand: "serve",
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadDotEnv(c.String("env-file")); err != nil {
		return nil, err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := logger.Init(loggerConfig(cfg.Log)); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, nil
}

func serve(c *cli.Context) error {
	ctx := c.Context
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer logger.Sync()
	l := logger.Named("main")

	// 存储初始化失败直接退出，不进入服务状态。
	store, db, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	publisher, err := openPublisher(ctx, cfg.Events)
	if err != nil {
		_ = store.Close()
		return err
	}
	startEventLogger(ctx, publisher)

	svc := task.NewService(store, publisher)
	defer func() {
		if err := svc.Close(); err != nil {
			l.Warn("关闭任务服务失败", slog.Any("error", err))
		}
	}()

	collector := metrics.New(metrics.DefaultNamespace)
	if db != nil {
		if err := collector.RegisterDB("tasks", db); err != nil {
			l.Warn("注册连接池指标失败", slog.Any("error", err))
		}
	}

	server := api.NewServer(cfg.Server.Address, svc,
		api.WithMetrics(collector),
		api.WithAlerts(alerting.NewFanout(&alerting.LogNotifier{})),
		api.WithStaticDir(cfg.Server.StaticDir),
		api.WithTitle(cfg.Server.Title),
		api.WithCORS(cfg.Server.CORS.AllowedOrigins),
		api.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)

	l.Info("TaskBoard 启动",
		slog.String("version", version),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("events", cfg.Events.Driver),
	)
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func initDB(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, _, err := openStore(c.Context, cfg.Storage)
	if err != nil {
		return err
	}
	if err := store.Close(); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Database initialized.")
	return nil
}
