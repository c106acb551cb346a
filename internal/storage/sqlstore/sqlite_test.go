package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"taskboard/internal/task"
)

func openSQLite(t *testing.T, path string) *TaskStore {
	t.Helper()

	store, err := Open(context.Background(), Config{Driver: DriverSQLite, Path: path})
	if err != nil {
		if strings.Contains(err.Error(), "CGO_ENABLED=0") || strings.Contains(err.Error(), "cgo") {
			t.Skipf("sqlite3 driver unavailable: %v", err)
		}
		t.Fatalf("open sqlite store: %v", err)
	}
	return store
}

func TestSQLiteStoreLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "tasks.db")
	store := openSQLite(t, path)
	ctx := context.Background()

	first, err := store.Create(ctx, "first")
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := store.Create(ctx, "second")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("expected id-descending order, got %+v", list)
	}

	toggled, err := store.Toggle(ctx, first.ID)
	if err != nil || !toggled.Completed {
		t.Fatalf("toggle: %+v %v", toggled, err)
	}
	toggled, err = store.Toggle(ctx, first.ID)
	if err != nil || toggled.Completed {
		t.Fatalf("toggle back: %+v %v", toggled, err)
	}

	if err := store.Delete(ctx, second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	third, err := store.Create(ctx, "third")
	if err != nil {
		t.Fatalf("create third: %v", err)
	}
	if third.ID <= second.ID {
		t.Fatalf("deleted id %d was reused as %d", second.ID, third.ID)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// 重新打开时建表语句不应影响已有数据。
	reopened := openSQLite(t, path)
	defer reopened.Close()

	got, err := reopened.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Content != "first" || got.Completed {
		t.Fatalf("unexpected task after reopen: %+v", got)
	}
	if _, err := reopened.Get(ctx, second.ID); !errors.Is(err, task.ErrTaskNotFound) {
		t.Fatalf("expected deleted task to stay deleted, got %v", err)
	}
	if stats := reopened.DB().Stats(); stats.InUse != 0 {
		t.Fatalf("connections leaked: %+v", stats)
	}
}
