package queue

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// JobStatus is the poll-visible state of one generation job.
type JobStatus struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	Count        int       `json:"count"`
	Generated    int       `json:"generated"`
	Complete     bool      `json:"complete"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	RequestedBy  string    `json:"requestedBy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Tracker records job status in Redis hashes so the API can answer
// polling requests without a broker round trip.
type Tracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTracker builds a Redis-backed tracker. Records expire after ttl
// (24h when ttl <= 0).
func NewTracker(addr, password string, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tracker{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		ttl:    ttl,
	}
}

// SetQueued records a freshly enqueued job.
func (t *Tracker) SetQueued(ctx context.Context, job GenerationJob) error {
	now := time.Now().UTC()
	return t.write(ctx, JobStatus{
		ID:          job.ID,
		Status:      StatusQueued,
		Count:       job.Count,
		RequestedBy: job.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// SetProcessing marks the job as picked up by a worker.
func (t *Tracker) SetProcessing(ctx context.Context, jobID string) error {
	return t.update(ctx, jobID, func(s *JobStatus) {
		s.Status = StatusProcessing
	})
}

// SetDone records how many verses the job produced. A partial batch is
// still done; Complete reports whether the full count was reached.
func (t *Tracker) SetDone(ctx context.Context, jobID string, generated int, complete bool) error {
	return t.update(ctx, jobID, func(s *JobStatus) {
		s.Status = StatusDone
		s.Generated = generated
		s.Complete = complete
		s.ErrorMessage = ""
	})
}

// SetFailed records a job that produced nothing.
func (t *Tracker) SetFailed(ctx context.Context, jobID, errMsg string) error {
	return t.update(ctx, jobID, func(s *JobStatus) {
		s.Status = StatusFailed
		s.ErrorMessage = errMsg
	})
}

// Get loads a job status.
func (t *Tracker) Get(ctx context.Context, jobID string) (JobStatus, bool, error) {
	data, err := t.client.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return JobStatus{}, false, err
	}
	if len(data) == 0 {
		return JobStatus{}, false, nil
	}
	return decodeStatus(jobID, data), true, nil
}

func (t *Tracker) update(ctx context.Context, jobID string, mutate func(*JobStatus)) error {
	status, found, err := t.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if !found {
		status = JobStatus{ID: jobID, CreatedAt: time.Now().UTC()}
	}
	mutate(&status)
	status.UpdatedAt = time.Now().UTC()
	return t.write(ctx, status)
}

func (t *Tracker) write(ctx context.Context, status JobStatus) error {
	key := jobKey(status.ID)
	payload := map[string]any{
		"status":      status.Status,
		"count":       strconv.Itoa(status.Count),
		"generated":   strconv.Itoa(status.Generated),
		"complete":    strconv.FormatBool(status.Complete),
		"error":       status.ErrorMessage,
		"requestedBy": status.RequestedBy,
		"createdAt":   status.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt":   status.UpdatedAt.Format(time.RFC3339Nano),
	}
	if err := t.client.HSet(ctx, key, payload).Err(); err != nil {
		return err
	}
	return t.client.Expire(ctx, key, t.ttl).Err()
}

func jobKey(jobID string) string {
	return "palavraviva:job:" + jobID
}

func decodeStatus(jobID string, data map[string]string) JobStatus {
	status := JobStatus{ID: jobID}
	status.Status = data["status"]
	status.ErrorMessage = data["error"]
	status.RequestedBy = data["requestedBy"]
	if n, err := strconv.Atoi(data["count"]); err == nil {
		status.Count = n
	}
	if n, err := strconv.Atoi(data["generated"]); err == nil {
		status.Generated = n
	}
	status.Complete = data["complete"] == "true"
	if ts, err := time.Parse(time.RFC3339Nano, data["createdAt"]); err == nil {
		status.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, data["updatedAt"]); err == nil {
		status.UpdatedAt = ts
	}
	return status
}
