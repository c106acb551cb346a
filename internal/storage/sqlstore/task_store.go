package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	xerrors "taskboard/internal/errors"
	"taskboard/internal/task"
)

const (
	listTasksSQL      = `SELECT id, task, completed FROM tasks ORDER BY id DESC`
	getTaskSQL        = `SELECT id, task, completed FROM tasks WHERE id = ?`
	insertTaskSQL     = `INSERT INTO tasks (task, completed) VALUES (?, 0)`
	updateContentSQL  = `UPDATE tasks SET task = ? WHERE id = ?`
	deleteTaskSQL     = `DELETE FROM tasks WHERE id = ?`
	getCompletedSQL   = `SELECT completed FROM tasks WHERE id = ?`
	updateCompleteSQL = `UPDATE tasks SET completed = ? WHERE id = ?`
)

// TaskStore 使用关系型数据库保存任务。
//
// 每次调用都会从连接池借出一个独立连接，并在返回前归还；
// 读后写的操作（更新、切换）在同一连接上完成，但不开启事务。
type TaskStore struct {
	db      *sql.DB
	dialect string
}

// Open 建立连接并执行建表，任何失败都应视为启动失败。
func Open(ctx context.Context, cfg Config) (*TaskStore, error) {
	db, dialect, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, db, dialect); err != nil {
		db.Close()
		return nil, err
	}
	return &TaskStore{db: db, dialect: dialect}, nil
}

// NewTaskStore 包装一个已经初始化好表结构的连接池。
func NewTaskStore(db *sql.DB, dialect string) *TaskStore {
	return &TaskStore{db: db, dialect: dialect}
}

// DB 返回底层连接池，供指标采集使用。
func (s *TaskStore) DB() *sql.DB { return s.db }

// Dialect 返回当前使用的驱动名称。
func (s *TaskStore) Dialect() string { return s.dialect }

// Close 关闭底层数据库连接。
func (s *TaskStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *TaskStore) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "获取数据库连接失败")
	}
	defer conn.Close()
	return fn(conn)
}

// List 实现 task.Store。
func (s *TaskStore) List(ctx context.Context) ([]task.Task, error) {
	tasks := make([]task.Task, 0)
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, listTasksSQL)
		if err != nil {
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询任务列表失败")
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			tasks = append(tasks, t)
		}
		if err := rows.Err(); err != nil {
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历任务列表失败")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Get 实现 task.Store。
func (s *TaskStore) Get(ctx context.Context, id int64) (*task.Task, error) {
	var found *task.Task
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		t, err := getTask(ctx, conn, id)
		found = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Create 实现 task.Store。
func (s *TaskStore) Create(ctx context.Context, content string) (*task.Task, error) {
	var created *task.Task
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, insertTaskSQL, content)
		if err != nil {
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入任务失败")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取任务 id 失败")
		}
		created = &task.Task{ID: id, Content: content}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update 实现 task.Store。content 为 nil 时以原内容回写。
func (s *TaskStore) Update(ctx context.Context, id int64, content *string) (*task.Task, error) {
	var updated *task.Task
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		existing, err := getTask(ctx, conn, id)
		if err != nil {
			return err
		}
		if content != nil {
			existing.Content = *content
		}
		if _, err := conn.ExecContext(ctx, updateContentSQL, existing.Content, id); err != nil {
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, "更新任务失败")
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete 实现 task.Store。
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, deleteTaskSQL, id)
		if err != nil {
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, "删除任务失败")
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取影响行数失败")
		}
		if affected == 0 {
			return task.ErrTaskNotFound
		}
		return nil
	})
}

// Toggle 实现 task.Store。
func (s *TaskStore) Toggle(ctx context.Context, id int64) (*task.Toggled, error) {
	var toggled *task.Toggled
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		var completed sql.NullInt64
		err := conn.QueryRowContext(ctx, getCompletedSQL, id).Scan(&completed)
		if errors.Is(err, sql.ErrNoRows) {
			return task.ErrTaskNotFound
		}
		if err != nil {
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询任务状态失败")
		}

		next := !(completed.Valid && completed.Int64 != 0)
		value := 0
		if next {
			value = 1
		}
		if _, err := conn.ExecContext(ctx, updateCompleteSQL, value, id); err != nil {
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, "更新任务状态失败")
		}
		toggled = &task.Toggled{ID: id, Completed: next}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toggled, nil
}

func getTask(ctx context.Context, conn *sql.Conn, id int64) (*task.Task, error) {
	rows, err := conn.QueryContext(ctx, getTaskSQL, id)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询任务失败")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询任务失败")
		}
		return nil, task.ErrTaskNotFound
	}
	t, err := scanTask(rows)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTask(rows *sql.Rows) (task.Task, error) {
	var (
		t         task.Task
		completed sql.NullInt64
	)
	if err := rows.Scan(&t.ID, &t.Content, &completed); err != nil {
		return task.Task{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析任务记录失败")
	}
	t.Completed = completed.Valid && completed.Int64 != 0
	return t, nil
}

var _ task.Store = (*TaskStore)(nil)
