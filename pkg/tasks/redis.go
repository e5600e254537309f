package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultQueueKey     = "cloudlaunch:tasks"
	DefaultResultPrefix = "cloudlaunch:task"
)

// NewRedisClient connects to url (redis://[:password@]host:port/db) and
// checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// RedisBroker pushes tasks onto a Redis list and pops them with BRPOP.
type RedisBroker struct {
	rdb *redis.Client
	key string
}

var _ Broker = (*RedisBroker)(nil)

type RedisOption func(*redisOptions)

type redisOptions struct {
	key    string
	prefix string
	ttl    time.Duration
}

// WithQueueKey sets the list the broker uses.
func WithQueueKey(key string) RedisOption {
	return func(o *redisOptions) { o.key = key }
}

// WithResultPrefix sets the prefix of result hash keys.
func WithResultPrefix(prefix string) RedisOption {
	return func(o *redisOptions) { o.prefix = strings.Trim(prefix, ":") }
}

// WithResultTTL sets how long a task's status is kept after its last
// update. Zero keeps it forever.
func WithResultTTL(d time.Duration) RedisOption {
	return func(o *redisOptions) { o.ttl = d }
}

func buildOptions(opts []RedisOption) redisOptions {
	o := redisOptions{key: DefaultQueueKey, prefix: DefaultResultPrefix, ttl: 24 * time.Hour}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewRedisBroker(rdb *redis.Client, opts ...RedisOption) *RedisBroker {
	return &RedisBroker{rdb: rdb, key: buildOptions(opts).key}
}

func (b *RedisBroker) Enqueue(ctx context.Context, t Task) (string, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode task: %w", err)
	}
	if err := b.rdb.LPush(ctx, b.key, raw).Err(); err != nil {
		return "", fmt.Errorf("enqueue task %s: %w", t.ID, err)
	}
	return t.ID, nil
}

func (b *RedisBroker) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	res, err := b.rdb.BRPop(ctx, timeout, b.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoTask
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("dequeue: %w", err)
	}
	// BRPOP replies with [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("dequeue: unexpected reply %v", res)
	}
	var t Task
	if err := json.Unmarshal([]byte(res[1]), &t); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	return &t, nil
}

func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

// RedisResults stores each task's status in a hash that expires ttl after
// its last update.
type RedisResults struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

var _ ResultBackend = (*RedisResults)(nil)

func NewRedisResults(rdb *redis.Client, opts ...RedisOption) *RedisResults {
	o := buildOptions(opts)
	return &RedisResults{rdb: rdb, prefix: o.prefix, ttl: o.ttl}
}

func (r *RedisResults) key(id string) string {
	return r.prefix + ":" + id
}

func (r *RedisResults) write(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated"] = time.Now().UTC().Format(time.RFC3339Nano)
	key := r.key(id)

	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write status of task %s: %w", id, err)
	}
	return nil
}

func (r *RedisResults) SetState(ctx context.Context, id string, state State, meta map[string]interface{}) error {
	rawMeta := []byte("")
	if meta != nil {
		var err error
		if rawMeta, err = json.Marshal(meta); err != nil {
			return fmt.Errorf("encode meta of task %s: %w", id, err)
		}
	}
	return r.write(ctx, id, map[string]interface{}{"state": string(state), "meta": string(rawMeta)})
}

func (r *RedisResults) SetResult(ctx context.Context, id string, result interface{}) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result of task %s: %w", id, err)
	}
	return r.write(ctx, id, map[string]interface{}{"state": string(StateSuccess), "meta": "", "result": string(raw)})
}

func (r *RedisResults) SetFailure(ctx context.Context, id string, cause error) error {
	return r.write(ctx, id, map[string]interface{}{"state": string(StateFailure), "meta": "", "error": cause.Error()})
}

func (r *RedisResults) Get(ctx context.Context, id string) (*Status, error) {
	fields, err := r.rdb.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("read status of task %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}

	s := &Status{ID: id, State: State(fields["state"]), Error: fields["error"]}
	if m := fields["meta"]; m != "" {
		if err := json.Unmarshal([]byte(m), &s.Meta); err != nil {
			return nil, fmt.Errorf("decode meta of task %s: %w", id, err)
		}
	}
	if res := fields["result"]; res != "" {
		s.Result = json.RawMessage(res)
	}
	if u, err := time.Parse(time.RFC3339Nano, fields["updated"]); err == nil {
		s.Updated = u
	}
	return s, nil
}
