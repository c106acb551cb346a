package task

import (
	"context"
	"log/slog"
	"time"

	xerrors "taskboard/internal/errors"
	"taskboard/internal/events"
	"taskboard/pkg/logger"
)

// Service 负责任务的校验、持久化与变更通知。
type Service struct {
	store     Store
	publisher events.Publisher
	now       func() time.Time
}

// NewService 构造任务服务。publisher 为 nil 时不发送变更通知。
func NewService(store Store, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{store: store, publisher: publisher, now: time.Now}
}

// List 返回全部任务，最新创建的在前。
func (s *Service) List(ctx context.Context) ([]Task, error) {
	if s.store == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "任务存储未初始化")
	}
	tasks, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// Get 返回指定任务。
func (s *Service) Get(ctx context.Context, id int64) (*Task, error) {
	if s.store == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "任务存储未初始化")
	}
	return s.store.Get(ctx, id)
}

// Create 去除首尾空白后创建任务，内容为空时不写入任何记录。
func (s *Service) Create(ctx context.Context, raw string) (*Task, error) {
	content, err := NormalizeContent(raw)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "任务存储未初始化")
	}
	created, err := s.store.Create(ctx, content)
	if err != nil {
		return nil, err
	}
	logger.Audit().Info("任务已创建",
		slog.Int64("task_id", created.ID),
		slog.String("task", created.Content),
	)
	s.publish(ctx, events.Event{Type: events.TypeCreated, TaskID: created.ID, Content: created.Content})
	return created, nil
}

// Update 替换任务内容；content 为 nil 时保持原内容。更新不做空值校验。
func (s *Service) Update(ctx context.Context, id int64, content *string) (*Task, error) {
	if s.store == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "任务存储未初始化")
	}
	updated, err := s.store.Update(ctx, id, content)
	if err != nil {
		return nil, err
	}
	logger.Audit().Info("任务已更新",
		slog.Int64("task_id", updated.ID),
		slog.Bool("content_changed", content != nil),
	)
	s.publish(ctx, events.Event{
		Type:      events.TypeUpdated,
		TaskID:    updated.ID,
		Content:   updated.Content,
		Completed: updated.Completed,
	})
	return updated, nil
}

// Delete 删除任务。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if s.store == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "任务存储未初始化")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	logger.Audit().Info("任务已删除", slog.Int64("task_id", id))
	s.publish(ctx, events.Event{Type: events.TypeDeleted, TaskID: id})
	return nil
}

// Toggle 翻转任务的完成状态。
func (s *Service) Toggle(ctx context.Context, id int64) (*Toggled, error) {
	if s.store == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "任务存储未初始化")
	}
	toggled, err := s.store.Toggle(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.Audit().Info("任务状态已切换",
		slog.Int64("task_id", toggled.ID),
		slog.Bool("completed", toggled.Completed),
	)
	s.publish(ctx, events.Event{Type: events.TypeToggled, TaskID: toggled.ID, Completed: toggled.Completed})
	return toggled, nil
}

// Close 释放存储与通知通道。
func (s *Service) Close() error {
	var err error
	if s.store != nil {
		err = s.store.Close()
	}
	if s.publisher != nil {
		if pubErr := s.publisher.Close(); err == nil {
			err = pubErr
		}
	}
	return err
}

// publish 的失败只记录日志，不影响已经完成的写入。
func (s *Service) publish(ctx context.Context, event events.Event) {
	event.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		wrapped := xerrors.Wrap(xerrors.CodePublishFailure, err, "发布任务事件失败")
		logger.L().Warn("任务事件发布失败",
			slog.Any("error", wrapped),
			slog.String("event", string(event.Type)),
			slog.Int64("task_id", event.TaskID),
		)
	}
}
