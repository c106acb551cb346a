package task

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreListOrderedByIDDesc(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, content := range []string{"a", "b", "c"} {
		if _, err := store.Create(ctx, content); err != nil {
			t.Fatalf("create %s: %v", content, err)
		}
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(all))
	}
	for i, want := range []int64{3, 2, 1} {
		if all[i].ID != want {
			t.Fatalf("position %d: got id %d want %d", i, all[i].ID, want)
		}
	}
}

func TestMemoryStoreNeverReusesIDs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, _ := store.Create(ctx, "first")
	second, _ := store.Create(ctx, "second")
	if err := store.Delete(ctx, second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	third, err := store.Create(ctx, "third")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if third.ID == first.ID || third.ID == second.ID {
		t.Fatalf("id %d was reused", third.ID)
	}
}

func TestMemoryStoreUpdateAndToggle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, _ := store.Create(ctx, "buy milk")
	if _, err := store.Toggle(ctx, created.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	updated, err := store.Update(ctx, created.ID, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Content != "buy milk" || !updated.Completed {
		t.Fatalf("absent content changed the task: %+v", updated)
	}

	content := "buy oat milk"
	updated, err = store.Update(ctx, created.ID, &content)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Content != content || !updated.Completed {
		t.Fatalf("unexpected task after update: %+v", updated)
	}

	for _, op := range []func() error{
		func() error { _, err := store.Update(ctx, 99, &content); return err },
		func() error { _, err := store.Toggle(ctx, 99); return err },
		func() error { return store.Delete(ctx, 99) },
		func() error { _, err := store.Get(ctx, 99); return err },
	} {
		if err := op(); !errors.Is(err, ErrTaskNotFound) {
			t.Fatalf("expected ErrTaskNotFound, got %v", err)
		}
	}
}
