package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"taskboard/internal/config"
	"taskboard/internal/events"
	"taskboard/internal/storage/sqlstore"
	"taskboard/internal/task"
	"taskboard/pkg/logger"
)

// openStore 根据配置打开任务存储。内存驱动不返回 *sql.DB。
func openStore(ctx context.Context, cfg config.StorageConfig) (task.Store, *sql.DB, error) {
	if cfg.Driver == "memory" {
		return task.NewMemoryStore(), nil, nil
	}
	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:          cfg.Driver,
		Path:            cfg.Path,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return store, store.DB(), nil
}

func openPublisher(ctx context.Context, cfg config.EventsConfig) (events.Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		return events.Noop{}, nil
	case "memory":
		return events.NewMemoryBus(cfg.Buffer), nil
	case "redis":
		return events.NewRedisPublisher(ctx, events.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
			MaxLen:   cfg.Redis.MaxLen,
		})
	case "rabbitmq":
		return events.NewRabbitMQPublisher(events.RabbitMQConfig{
			URL:     cfg.RabbitMQ.URL,
			Queue:   cfg.RabbitMQ.Queue,
			Durable: cfg.RabbitMQ.Durable,
		})
	default:
		return nil, errors.New("未知的事件驱动: " + cfg.Driver)
	}
}

// startEventLogger 在进程内总线上挂一个订阅者，把事件写入调试日志。
func startEventLogger(ctx context.Context, publisher events.Publisher) {
	bus, ok := publisher.(*events.MemoryBus)
	if !ok {
		return
	}
	l := logger.Named("events")
	go func() {
		_ = bus.Subscribe(ctx, func(e events.Event) {
			l.Debug("任务事件",
				slog.String("type", string(e.Type)),
				slog.Int64("task_id", e.TaskID),
				slog.Time("occurred_at", e.OccurredAt),
			)
		})
	}()
}

func loggerConfig(cfg config.LogConfig) logger.Config {
	return logger.Config{
		Level:       cfg.Level,
		Format:      cfg.Format,
		OutputPaths: cfg.Outputs,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Audit.Enabled,
			Path:       cfg.Audit.Path,
			MaxSizeMB:  cfg.Audit.MaxSizeMB,
			MaxBackups: cfg.Audit.MaxBackups,
			MaxAgeDays: cfg.Audit.MaxAgeDays,
			Compress:   cfg.Audit.Compress,
		},
	}
}
