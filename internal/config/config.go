package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	xerrors "taskboard/internal/errors"
)

// 环境变量名称。
const (
	EnvConfigPath   = "TASKBOARD_CONFIG"
	EnvAddr         = "TASKBOARD_ADDR"
	EnvDBDriver     = "TASKBOARD_DB_DRIVER"
	EnvDBPath       = "TASKBOARD_DB_PATH"
	EnvDBDSN        = "TASKBOARD_DB_DSN"
	EnvLogLevel     = "TASKBOARD_LOG_LEVEL"
	EnvEventsDriver = "TASKBOARD_EVENTS_DRIVER"
)

// Config 描述了 TaskBoard 在启动阶段需要加载的全部配置。
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Events  EventsConfig  `yaml:"events"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig 控制 HTTP 服务的监听地址与页面参数。
type ServerConfig struct {
	Address         string        `yaml:"address"`
	StaticDir       string        `yaml:"static_dir"`
	Title           string        `yaml:"title"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORS            CORSConfig    `yaml:"cors"`
}

// CORSConfig 为空时不启用跨域中间件。
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig 描述任务表所在的后端。
type StorageConfig struct {
	// Driver 可选 sqlite3、mysql、memory。
	Driver          string        `yaml:"driver"`
	Path            string        `yaml:"path"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	BusyTimeout     time.Duration `yaml:"busy_timeout"`
}

// EventsConfig 控制任务变更通知的投递方式。
type EventsConfig struct {
	// Driver 可选 none、memory、redis、rabbitmq。
	Driver   string         `yaml:"driver"`
	Buffer   int            `yaml:"buffer"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
}

// RedisConfig 对应 Redis 列表投递。
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
	MaxLen   int64  `yaml:"max_len"`
}

// RabbitMQConfig 对应 RabbitMQ 队列投递。
type RabbitMQConfig struct {
	URL     string `yaml:"url"`
	Queue   string `yaml:"queue"`
	Durable bool   `yaml:"durable"`
}

// LogConfig 对应 pkg/logger 的初始化参数。
type LogConfig struct {
	Level   string      `yaml:"level"`
	Format  string      `yaml:"format"`
	Outputs []string    `yaml:"outputs"`
	Audit   AuditConfig `yaml:"audit"`
}

// AuditConfig 控制审计日志的落盘与轮转。
type AuditConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// LoadDotEnv 把 .env 文件中的变量写入进程环境，文件不存在时忽略。
// 已经存在的环境变量不会被覆盖。
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return xerrors.Wrap(xerrors.CodeInvalidArgument, err, fmt.Sprintf("加载 %s 失败", file))
		}
	}
	return nil
}

// Load 依次应用默认值、YAML 文件与环境变量。
// path 为空时读取 TASKBOARD_CONFIG；两者都为空时只使用默认值与环境变量。
func Load(path string) (*Config, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}

	cfg := &Config{}
	baseDir := ""
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "打开配置文件失败")
		}
		defer file.Close()

		if err := decode(file, cfg); err != nil {
			return nil, err
		}
		baseDir = filepath.Dir(path)
	}

	cfg.applyEnv(os.LookupEnv)
	cfg.applyDefaults(baseDir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeInvalidArgument, err, "读取配置文件失败")
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return xerrors.Wrap(xerrors.CodeInvalidArgument, err, "解析配置失败")
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvAddr, &c.Server.Address)
	set(EnvDBDriver, &c.Storage.Driver)
	set(EnvDBPath, &c.Storage.Path)
	set(EnvDBDSN, &c.Storage.DSN)
	set(EnvLogLevel, &c.Log.Level)
	set(EnvEventsDriver, &c.Events.Driver)
}

// applyDefaults 在用户未填写部分字段时设置默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":5000"
	}
	if c.Server.Title == "" {
		c.Server.Title = "Task Manager"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.Server.StaticDir != "" && baseDir != "" && !filepath.IsAbs(c.Server.StaticDir) {
		c.Server.StaticDir = filepath.Join(baseDir, c.Server.StaticDir)
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" || c.Storage.Driver == "sqlite" {
		c.Storage.Driver = "sqlite3"
	}
	if c.Storage.Driver == "sqlite3" {
		if c.Storage.Path == "" {
			c.Storage.Path = "tasks.db"
		} else if baseDir != "" && !filepath.IsAbs(c.Storage.Path) {
			c.Storage.Path = filepath.Join(baseDir, c.Storage.Path)
		}
	}

	c.Events.Driver = strings.ToLower(strings.TrimSpace(c.Events.Driver))
	if c.Events.Driver == "" {
		c.Events.Driver = "none"
	}
	if c.Events.Buffer <= 0 {
		c.Events.Buffer = 256
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stdout"}
	}
	if c.Log.Audit.Enabled && c.Log.Audit.Path == "" {
		c.Log.Audit.Path = "audit.log"
	}
}

// Validate 检查互相依赖的字段。
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite3", "memory":
	case "mysql":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return xerrors.New(xerrors.CodeInvalidArgument, "storage.driver 为 mysql 时必须提供 dsn")
		}
	default:
		return xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("不支持的存储驱动: %s", c.Storage.Driver))
	}

	switch c.Events.Driver {
	case "none", "memory":
	case "redis":
		if strings.TrimSpace(c.Events.Redis.Address) == "" {
			return xerrors.New(xerrors.CodeInvalidArgument, "events.driver 为 redis 时必须提供 redis.address")
		}
	case "rabbitmq":
		if strings.TrimSpace(c.Events.RabbitMQ.URL) == "" {
			return xerrors.New(xerrors.CodeInvalidArgument, "events.driver 为 rabbitmq 时必须提供 rabbitmq.url")
		}
	default:
		return xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("不支持的事件驱动: %s", c.Events.Driver))
	}
	return nil
}
