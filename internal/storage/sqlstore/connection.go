package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	xerrors "taskboard/internal/errors"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// Config 描述任务表所在数据库的连接参数。
type Config struct {
	// Driver 为 sqlite3 或 mysql。
	Driver string
	// Path 是 SQLite 数据文件路径。
	Path string
	// DSN 是 MySQL 连接串。
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	BusyTimeout     time.Duration
}

func openDatabase(ctx context.Context, cfg Config) (*sql.DB, string, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "sqlite" {
		driver = DriverSQLite
	}

	var (
		dsn         string
		defaultOpen int
	)
	switch driver {
	case DriverSQLite:
		path := strings.TrimSpace(cfg.Path)
		if path == "" {
			path = "tasks.db"
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, "", xerrors.Wrap(xerrors.CodeStorageFailure, err, "创建数据目录失败")
		}
		busy := cfg.BusyTimeout
		if busy <= 0 {
			busy = 5 * time.Second
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=%d", path, busy.Milliseconds())
		// SQLite 只允许单个写者，串行化连接以避免 SQLITE_BUSY。
		defaultOpen = 1
	case DriverMySQL:
		if strings.TrimSpace(cfg.DSN) == "" {
			return nil, "", xerrors.New(xerrors.CodeInvalidArgument, "MySQL DSN 不能为空")
		}
		parsed, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return nil, "", xerrors.Wrap(xerrors.CodeInvalidArgument, err, "解析 MySQL DSN 失败")
		}
		dsn = parsed.FormatDSN()
		defaultOpen = 20
	default:
		return nil, "", xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("暂不支持的存储驱动: %s", cfg.Driver))
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", xerrors.Wrap(xerrors.CodeStorageFailure, err, "打开数据库失败")
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(defaultOpen)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	} else {
		db.SetMaxIdleConns(1)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", xerrors.Wrap(xerrors.CodeStorageFailure, err, "无法连接到数据库")
	}
	return db, driver, nil
}
