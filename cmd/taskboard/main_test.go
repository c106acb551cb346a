package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskboard/internal/config"
	"taskboard/internal/events"
	"taskboard/internal/task"
)

func TestOpenStoreMemory(t *testing.T) {
	store, db, err := openStore(context.Background(), config.StorageConfig{Driver: "memory"})
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	if db != nil {
		t.Fatalf("memory store should not expose a pool")
	}
	if _, ok := store.(*task.MemoryStore); !ok {
		t.Fatalf("unexpected store type %T", store)
	}
}

func TestOpenPublisher(t *testing.T) {
	ctx := context.Background()

	pub, err := openPublisher(ctx, config.EventsConfig{Driver: "none"})
	if err != nil {
		t.Fatalf("none: %v", err)
	}
	if _, ok := pub.(events.Noop); !ok {
		t.Fatalf("expected Noop, got %T", pub)
	}

	pub, err = openPublisher(ctx, config.EventsConfig{Driver: "memory", Buffer: 4})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := pub.(*events.MemoryBus); !ok {
		t.Fatalf("expected MemoryBus, got %T", pub)
	}
	_ = pub.Close()

	if _, err := openPublisher(ctx, config.EventsConfig{Driver: "kafka"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestInitDBCommand(t *testing.T) {
	for _, key := range []string{config.EnvConfigPath, config.EnvAddr, config.EnvDBDSN, config.EnvLogLevel, config.EnvEventsDriver} {
		t.Setenv(key, "")
	}
	dbPath := filepath.Join(t.TempDir(), "tasks.db")
	t.Setenv(config.EnvDBDriver, "sqlite3")
	t.Setenv(config.EnvDBPath, dbPath)

	app := newApp()
	var out bytes.Buffer
	app.Writer = &out

	err := app.RunContext(context.Background(), []string{"taskboard", "--env-file", filepath.Join(t.TempDir(), "none.env"), "initdb"})
	if err != nil {
		if strings.Contains(err.Error(), "CGO_ENABLED=0") || strings.Contains(err.Error(), "cgo") {
			t.Skipf("sqlite3 driver unavailable: %v", err)
		}
		t.Fatalf("initdb: %v", err)
	}
	if !strings.Contains(out.String(), "Database initialized.") {
		t.Fatalf("unexpected output: %q", out.String())
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out

	if err := app.RunContext(context.Background(), []string{"taskboard", "version"}); err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out.String()) != version {
		t.Fatalf("unexpected version output: %q", out.String())
	}
}
