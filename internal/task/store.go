package task

import "context"

// Store 抽象了任务表的持久化接口。
//
// 每个方法对应一次请求内的存储往返；实现需要在方法返回前释放其占用的连接。
type Store interface {
	// List 返回全部任务，按 id 倒序。
	List(ctx context.Context) ([]Task, error)
	Get(ctx context.Context, id int64) (*Task, error)
	// Create 插入一条未完成的任务并返回分配的 id。
	Create(ctx context.Context, content string) (*Task, error)
	// Update 在 content 非 nil 时替换内容，completed 保持不变。
	Update(ctx context.Context, id int64, content *string) (*Task, error)
	Delete(ctx context.Context, id int64) error
	Toggle(ctx context.Context, id int64) (*Toggled, error)
	Close() error
}
