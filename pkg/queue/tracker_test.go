package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	redisSrv := miniredis.RunT(t)
	return NewTracker(redisSrv.Addr(), "", time.Hour)
}

func TestTrackerLifecycle(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()
	job := GenerationJob{ID: "job-1", Count: 5, RequestedBy: "u-1", EnqueuedAt: time.Now()}

	if err := tracker.SetQueued(ctx, job); err != nil {
		t.Fatalf("set queued: %v", err)
	}
	status, found, err := tracker.Get(ctx, "job-1")
	if err != nil || !found {
		t.Fatalf("get queued: found=%v err=%v", found, err)
	}
	if status.Status != StatusQueued || status.Count != 5 || status.RequestedBy != "u-1" {
		t.Fatalf("queued status wrong: %+v", status)
	}

	if err := tracker.SetProcessing(ctx, "job-1"); err != nil {
		t.Fatalf("set processing: %v", err)
	}
	if err := tracker.SetDone(ctx, "job-1", 3, false); err != nil {
		t.Fatalf("set done: %v", err)
	}
	status, _, err = tracker.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("get done: %v", err)
	}
	if status.Status != StatusDone || status.Generated != 3 || status.Complete {
		t.Fatalf("partial done status wrong: %+v", status)
	}
	if status.Count != 5 {
		t.Fatalf("count lost across updates: %+v", status)
	}
}

func TestTrackerFailedKeepsError(t *testing.T) {
	tracker := newTestTracker(t)
	ctx := context.Background()
	if err := tracker.SetQueued(ctx, GenerationJob{ID: "job-2", Count: 1}); err != nil {
		t.Fatalf("set queued: %v", err)
	}
	if err := tracker.SetFailed(ctx, "job-2", "quota exceeded"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	status, _, err := tracker.Get(ctx, "job-2")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if status.Status != StatusFailed || status.ErrorMessage != "quota exceeded" {
		t.Fatalf("failed status wrong: %+v", status)
	}
}

func TestTrackerUnknownJob(t *testing.T) {
	tracker := newTestTracker(t)
	_, found, err := tracker.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if found {
		t.Fatal("missing job reported as found")
	}
}
