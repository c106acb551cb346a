package taskboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskboard/internal/api"
	"taskboard/internal/task"
)

func TestCreateTaskSendsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tasks" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("unexpected content type: %q", ct)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("unexpected body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Task{ID: 1, Task: body["task"]})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	created, err := client.CreateTask(context.Background(), "buy milk")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 1 || created.Task != "buy milk" || created.Done() {
		t.Fatalf("unexpected task: %+v", created)
	}
}

func TestUpdateTaskOmitsAbsentContent(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tasks/5" || r.Method != http.MethodPut {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		got = nil
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(Task{ID: 5, Task: "kept"})
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL, srv.Client())
	if _, err := client.UpdateTask(context.Background(), 5, nil); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, present := got["task"]; present {
		t.Fatalf("expected task field to be omitted, got %v", got)
	}
}

func TestErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Task not found"}`))
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL, srv.Client())
	err := client.DeleteTask(context.Background(), 404)
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Message != "Task not found" || !IsNotFound(err) {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestClientAgainstServer(t *testing.T) {
	server := api.NewServer(":0", task.NewService(task.NewMemoryStore(), nil))
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	client, _ := NewClient(srv.URL, srv.Client())
	ctx := context.Background()

	for _, content := range []string{"one", "two"} {
		if _, err := client.CreateTask(ctx, content); err != nil {
			t.Fatalf("create %s: %v", content, err)
		}
	}
	if _, err := client.CreateTask(ctx, "   "); err == nil {
		t.Fatalf("expected blank task to be rejected")
	}

	toggled, err := client.ToggleTask(ctx, 1)
	if err != nil || toggled.Completed != 1 {
		t.Fatalf("toggle: %+v %v", toggled, err)
	}

	renamed := "uno"
	updated, err := client.UpdateTask(ctx, 1, &renamed)
	if err != nil || updated.Task != "uno" || !updated.Done() {
		t.Fatalf("update: %+v %v", updated, err)
	}

	if err := client.DeleteTask(ctx, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := client.DeleteTask(ctx, 2); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	tasks, err := client.ListTasks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != 1 || tasks[0].Task != "uno" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}
