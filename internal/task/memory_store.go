package task

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore 以内存方式保存任务，主要用于测试。
type MemoryStore struct {
	mu     sync.RWMutex
	tasks  map[int64]Task
	nextID int64
}

// NewMemoryStore 创建 MemoryStore。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[int64]Task)}
}

// List 实现 Store 接口。
func (m *MemoryStore) List(_ context.Context) ([]Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		results = append(results, t)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ID > results[j].ID
	})
	return results, nil
}

// Get 返回任务。
func (m *MemoryStore) Get(_ context.Context, id int64) (*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return &t, nil
}

// Create 分配新的 id，已删除任务的 id 不会被复用。
func (m *MemoryStore) Create(_ context.Context, content string) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t := Task{ID: m.nextID, Content: content}
	m.tasks[t.ID] = t
	return &t, nil
}

// Update 替换任务内容。
func (m *MemoryStore) Update(_ context.Context, id int64, content *string) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if content != nil {
		t.Content = *content
	}
	m.tasks[id] = t
	return &t, nil
}

// Delete 删除任务。
func (m *MemoryStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

// Toggle 翻转完成状态。
func (m *MemoryStore) Toggle(_ context.Context, id int64) (*Toggled, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	t.Completed = !t.Completed
	m.tasks[id] = t
	return &Toggled{ID: id, Completed: t.Completed}, nil
}

// Close 对内存存储无需操作。
func (m *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
