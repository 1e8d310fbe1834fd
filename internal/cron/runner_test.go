package cronrunner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestAddTaskRespectsSwitch(t *testing.T) {
	r := New(nil, context.Background())
	var on atomic.Bool
	var runs, failures atomic.Int32
	if _, err := r.AddTask("sweep", "@every 1s", func(context.Context) bool { return on.Load() }, func(context.Context) error {
		runs.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := r.AddTask("broken", "@every 1s", nil, func(context.Context) error {
		failures.Add(1)
		return errors.New("boom")
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	r.Start()
	defer r.Stop()

	time.Sleep(1500 * time.Millisecond)
	if got := runs.Load(); got != 0 {
		t.Fatalf("disabled task ran %d times", got)
	}
	if failures.Load() == 0 {
		t.Fatalf("failing task should keep being scheduled")
	}
	on.Store(true)
	time.Sleep(1200 * time.Millisecond)
	if runs.Load() == 0 {
		t.Fatalf("enabled task never ran")
	}
}

func TestAddRejectsBadSpec(t *testing.T) {
	r := New(nil, nil)
	if _, err := r.Add("not a spec", func(context.Context) {}); err == nil {
		t.Fatalf("expected parse error")
	}
}
