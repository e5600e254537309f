package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryBroker is a bounded in-process queue.
type MemoryBroker struct {
	queue chan Task
}

var _ Broker = (*MemoryBroker)(nil)

func NewMemoryBroker(capacity int) *MemoryBroker {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryBroker{queue: make(chan Task, capacity)}
}

func (b *MemoryBroker) Enqueue(ctx context.Context, t Task) (string, error) {
	select {
	case b.queue <- t:
		return t.ID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		return "", fmt.Errorf("task queue is full (%d tasks)", cap(b.queue))
	}
}

func (b *MemoryBroker) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case t := <-b.queue:
		return &t, nil
	case <-timer.C:
		return nil, ErrNoTask
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *MemoryBroker) Ping(context.Context) error { return nil }

// Len returns the number of queued tasks.
func (b *MemoryBroker) Len() int { return len(b.queue) }

// MemoryResults keeps task statuses in a map. Entries never expire.
type MemoryResults struct {
	mu       sync.RWMutex
	statuses map[string]*Status
}

var _ ResultBackend = (*MemoryResults)(nil)

func NewMemoryResults() *MemoryResults {
	return &MemoryResults{statuses: make(map[string]*Status)}
}

func (m *MemoryResults) update(id string, fn func(s *Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.statuses[id]
	if !ok {
		s = &Status{ID: id}
		m.statuses[id] = s
	}
	fn(s)
	s.Updated = time.Now().UTC()
}

func (m *MemoryResults) SetState(ctx context.Context, id string, state State, meta map[string]interface{}) error {
	m.update(id, func(s *Status) {
		s.State = state
		s.Meta = meta
	})
	return nil
}

func (m *MemoryResults) SetResult(ctx context.Context, id string, result interface{}) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result of task %s: %w", id, err)
	}
	m.update(id, func(s *Status) {
		s.State = StateSuccess
		s.Meta = nil
		s.Result = raw
	})
	return nil
}

func (m *MemoryResults) SetFailure(ctx context.Context, id string, cause error) error {
	m.update(id, func(s *Status) {
		s.State = StateFailure
		s.Meta = nil
		s.Error = cause.Error()
	})
	return nil
}

func (m *MemoryResults) Get(ctx context.Context, id string) (*Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.statuses[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	cp := *s
	return &cp, nil
}
