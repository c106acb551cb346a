package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	xerrors "taskboard/internal/errors"
)

type recordingNotifier struct {
	channel Channel
	events  []Event
	err     error
}

func (r *recordingNotifier) Channel() Channel { return r.channel }

func (r *recordingNotifier) Notify(_ context.Context, event Event) error {
	r.events = append(r.events, event)
	return r.err
}

func TestFanoutDispatchesToEveryChannel(t *testing.T) {
	first := &recordingNotifier{channel: "a"}
	second := &recordingNotifier{channel: "b", err: errors.New("webhook down")}
	d := NewFanout(first, nil, second)

	if got := d.Channels(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected channels: %v", got)
	}

	err := d.Notify(context.Background(), Event{Code: xerrors.CodeStorageFailure})
	if err == nil {
		t.Fatalf("expected joined error from failing channel")
	}
	if len(first.events) != 1 || len(second.events) != 1 {
		t.Fatalf("expected both notifiers called, got %d/%d", len(first.events), len(second.events))
	}
	if first.events[0].OccurredAt.IsZero() {
		t.Fatalf("expected timestamp to be filled")
	}
}

func TestNilFanoutIsNoop(t *testing.T) {
	var d *FanoutDispatcher
	if err := d.Notify(context.Background(), Event{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLogNotifierWritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	n := &LogNotifier{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	err := xerrors.Wrap(xerrors.CodeStorageFailure, errors.New("disk full"), "写入任务失败",
		xerrors.WithMetadata("table", "tasks"))
	event := FromError(err)
	event.Route = "POST /api/tasks"
	event.Method = "POST"
	event.RequestID = "req-1"

	if err := n.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log record: %v (%s)", err, buf.String())
	}
	if record["level"] != "ERROR" || record["code"] != string(xerrors.CodeStorageFailure) {
		t.Fatalf("unexpected record: %v", record)
	}
	if record["request_id"] != "req-1" || record["meta.table"] != "tasks" {
		t.Fatalf("missing attributes: %v", record)
	}
}
