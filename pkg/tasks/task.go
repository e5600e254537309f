package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a task.
type State string

const (
	StatePending     State = "PENDING"
	StateStarted     State = "STARTED"
	StateProgressing State = "PROGRESSING"
	StateSuccess     State = "SUCCESS"
	StateFailure     State = "FAILURE"
)

// Done reports whether s is terminal.
func (s State) Done() bool {
	return s == StateSuccess || s == StateFailure
}

var (
	// ErrNoTask is returned by Dequeue when nothing arrived before the
	// timeout.
	ErrNoTask = errors.New("no task available")
	// ErrNotFound is returned by ResultBackend.Get for an unknown id.
	ErrNotFound = errors.New("task not found")
	// ErrUnknownTask fails a task whose name has no registered function.
	ErrUnknownTask = errors.New("unknown task")
)

// Task is one unit of queued work.
type Task struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Payload  json.RawMessage `json:"payload"`
	Enqueued time.Time       `json:"enqueued"`
}

// NewTask builds a task with a fresh id and the JSON encoding of payload.
func NewTask(name string, payload interface{}) (Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Task{}, err
	}
	return Task{ID: uuid.NewString(), Name: name, Payload: raw}, nil
}

// Status is what the result backend knows about a task.
type Status struct {
	ID      string                 `json:"task_id"`
	State   State                  `json:"state"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
	Result  json.RawMessage        `json:"result,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Updated time.Time              `json:"updated"`
}

type Broker interface {
	Enqueue(ctx context.Context, t Task) (string, error)
	// Dequeue waits up to timeout for a task and returns ErrNoTask if none
	// arrives.
	Dequeue(ctx context.Context, timeout time.Duration) (*Task, error)
	Ping(ctx context.Context) error
}

type ResultBackend interface {
	SetState(ctx context.Context, id string, state State, meta map[string]interface{}) error
	SetResult(ctx context.Context, id string, result interface{}) error
	SetFailure(ctx context.Context, id string, cause error) error
	Get(ctx context.Context, id string) (*Status, error)
}

// Submit records t as PENDING and hands it to the broker.
func Submit(ctx context.Context, b Broker, results ResultBackend, t Task) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Enqueued.IsZero() {
		t.Enqueued = time.Now().UTC()
	}
	if err := results.SetState(ctx, t.ID, StatePending, nil); err != nil {
		return "", err
	}
	return b.Enqueue(ctx, t)
}
