package app

import (
	"context"
	"errors"
	"testing"

	"palavraviva/pkg/generation"
	"palavraviva/pkg/queue"
	"palavraviva/pkg/store"
)

type fakeTracker struct {
	processing []string
	done       map[string][2]any
	failed     map[string]string
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		done:   make(map[string][2]any),
		failed: make(map[string]string),
	}
}

func (t *fakeTracker) SetProcessing(_ context.Context, jobID string) error {
	t.processing = append(t.processing, jobID)
	return nil
}

func (t *fakeTracker) SetDone(_ context.Context, jobID string, generated int, complete bool) error {
	t.done[jobID] = [2]any{generated, complete}
	return nil
}

func (t *fakeTracker) SetFailed(_ context.Context, jobID, errMsg string) error {
	t.failed[jobID] = errMsg
	return nil
}

type fixedGenerator struct {
	replies []string
	calls   int
}

func (g *fixedGenerator) GenerateText(context.Context, string, string) (string, error) {
	i := g.calls
	g.calls++
	if i < len(g.replies) {
		return g.replies[i], nil
	}
	return "", errors.New("provider exhausted")
}

func TestHandleJobMarksDone(t *testing.T) {
	tracker := newFakeTracker()
	generator := generation.New(store.NewMemoryStore(), &fixedGenerator{replies: []string{
		`{"book":"Salmos","chapter":1,"verse":1,"text":"texto","summary":"resumo"}`,
	}}, nil)
	worker := New(generator, tracker, nil)

	job := queue.GenerationJob{ID: "job-1", Count: 1, RequestedBy: "u1"}
	if err := worker.HandleJob(context.Background(), job); err != nil {
		t.Fatalf("handle job: %v", err)
	}
	if len(tracker.processing) != 1 || tracker.processing[0] != "job-1" {
		t.Fatalf("processing transitions = %v", tracker.processing)
	}
	got, ok := tracker.done["job-1"]
	if !ok || got[0] != 1 || got[1] != true {
		t.Fatalf("done record = %v ok=%v", got, ok)
	}
}

func TestHandleJobPartialBatchStillDone(t *testing.T) {
	tracker := newFakeTracker()
	generator := generation.New(store.NewMemoryStore(), &fixedGenerator{replies: []string{
		`{"book":"Salmos","chapter":1,"verse":1,"text":"texto","summary":"resumo"}`,
	}}, nil)
	worker := New(generator, tracker, nil)

	job := queue.GenerationJob{ID: "job-2", Count: 3, RequestedBy: "u1"}
	if err := worker.HandleJob(context.Background(), job); err != nil {
		t.Fatalf("partial batch should not fail the job: %v", err)
	}
	got, ok := tracker.done["job-2"]
	if !ok || got[0] != 1 || got[1] != false {
		t.Fatalf("done record = %v ok=%v", got, ok)
	}
	if len(tracker.failed) != 0 {
		t.Fatalf("unexpected failure records: %v", tracker.failed)
	}
}

func TestHandleJobEmptyBatchMarkedIncomplete(t *testing.T) {
	tracker := newFakeTracker()
	generator := generation.New(store.NewMemoryStore(), &fixedGenerator{}, nil)
	worker := New(generator, tracker, nil)

	job := queue.GenerationJob{ID: "job-3", Count: 2, RequestedBy: "u1"}
	if err := worker.HandleJob(context.Background(), job); err != nil {
		t.Fatalf("handle job: %v", err)
	}
	got, ok := tracker.done["job-3"]
	if !ok || got[0] != 0 || got[1] != false {
		t.Fatalf("done record = %v ok=%v", got, ok)
	}
}
