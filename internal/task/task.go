package task

import (
	"encoding/json"
	"fmt"
	"strings"

	xerrors "taskboard/internal/errors"
)

// Task 是系统中唯一的持久化实体。
type Task struct {
	ID        int64
	Content   string
	Completed bool
}

// Toggled 是切换完成状态后的返回结果。
type Toggled struct {
	ID        int64
	Completed bool
}

// taskWire 是 Task 的 JSON 表示，completed 以 0/1 编码。
type taskWire struct {
	ID        int64  `json:"id"`
	Content   string `json:"task"`
	Completed int    `json:"completed"`
}

// MarshalJSON 输出 {"id":1,"task":"...","completed":0}。
func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskWire{ID: t.ID, Content: t.Content, Completed: flag(t.Completed)})
}

// UnmarshalJSON 接受 0/1 或布尔形式的 completed。
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        int64           `json:"id"`
		Content   string          `json:"task"`
		Completed json.RawMessage `json:"completed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	completed, err := parseFlag(raw.Completed)
	if err != nil {
		return err
	}
	*t = Task{ID: raw.ID, Content: raw.Content, Completed: completed}
	return nil
}

// MarshalJSON 输出 {"id":1,"completed":1}。
func (t Toggled) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        int64 `json:"id"`
		Completed int   `json:"completed"`
	}{ID: t.ID, Completed: flag(t.Completed)})
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseFlag(raw json.RawMessage) (bool, error) {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "0", "false":
		return false, nil
	case "1", "true":
		return true, nil
	default:
		return false, fmt.Errorf("invalid completed value %s", raw)
	}
}

const (
	CodeTaskNotFound   xerrors.Code = "TASK_NOT_FOUND"
	CodeTaskValidation xerrors.Code = "TASK_VALIDATION_FAILED"
)

var (
	// ErrTaskNotFound 表示指定的任务不存在。
	ErrTaskNotFound = xerrors.New(CodeTaskNotFound, "Task not found")
	// ErrTaskEmpty 表示创建时任务内容为空。
	ErrTaskEmpty = xerrors.New(CodeTaskValidation, "Task cannot be empty")
)

func init() {
	xerrors.Register(CodeTaskNotFound, xerrors.Attributes{
		Message:  "Task not found",
		Severity: xerrors.SeverityInfo,
	})
	xerrors.Register(CodeTaskValidation, xerrors.Attributes{
		Message:  "task validation failed",
		Severity: xerrors.SeverityInfo,
	})
}

// NormalizeContent 去除首尾空白，结果为空时返回 ErrTaskEmpty。
func NormalizeContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", ErrTaskEmpty
	}
	return content, nil
}
