// Package core: Redis-backed session store.
//
// Sessions are stored as JSON under a namespace prefix with the idle TTL
// applied natively by Redis, so expiry needs no sweeper. Per-key
// exclusivity for Update is provided by a short-lived SETNX lease.
//
// Database allocation follows the convention of isolating session data in
// its own Redis DB (DB 2) away from any registry or cache data.
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisDBSessions is the Redis database used for session storage.
const RedisDBSessions = 2

// RedisSessionStore implements SessionStore on top of Redis.
type RedisSessionStore struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	logger    Logger
}

// RedisSessionStoreOptions configures the Redis session store.
type RedisSessionStoreOptions struct {
	RedisURL  string
	Namespace string // defaults to "tripmind:sessions"
	TTL       time.Duration
	Logger    Logger
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(opts RedisSessionStoreOptions) (*RedisSessionStore, error) {
	if opts.RedisURL == "" {
		return nil, fmt.Errorf("redis URL is required: %w", ErrInvalidConfiguration)
	}

	redisOpt, err := redis.ParseURL(opts.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", ErrInvalidConfiguration)
	}
	redisOpt.DB = RedisDBSessions

	if opts.Namespace == "" {
		opts.Namespace = "tripmind:sessions"
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = &NoOpLogger{}
	} else if cal, ok := logger.(ComponentAwareLogger); ok {
		logger = cal.WithComponent("planner/core")
	}

	client := redis.NewClient(redisOpt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", ErrServiceUnavailable)
	}

	logger.Info("Redis session store initialized", map[string]interface{}{
		"redis_db":  RedisDBSessions,
		"namespace": opts.Namespace,
		"ttl":       opts.TTL.String(),
	})

	return &RedisSessionStore{
		client:    client,
		namespace: opts.Namespace,
		ttl:       opts.TTL,
		logger:    logger,
	}, nil
}

// Get retrieves a session, refreshing its TTL and last-active time.
func (r *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Result()
	if err == redis.Nil {
		return nil, NewPlannerError("sessions.Get", "session", ErrSessionNotFound)
	}
	if err != nil {
		return nil, NewPlannerError("sessions.Get", "session", ErrServiceUnavailable)
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, &PlannerError{Op: "sessions.Get", Kind: "session", ID: id,
			Message: "corrupt session payload", Err: err}
	}

	session.LastActive = time.Now()
	if err := r.save(ctx, &session); err != nil {
		r.logger.Warn("Failed to refresh session TTL", map[string]interface{}{
			"session_id": id,
			"error":      err.Error(),
		})
	}
	return &session, nil
}

// Put stores or replaces a session with the idle TTL.
func (r *RedisSessionStore) Put(ctx context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return NewPlannerError("sessions.Put", "session", ErrInvalidInput)
	}
	session.LastActive = time.Now()
	return r.save(ctx, session)
}

// Delete removes a session. Idempotent.
func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return NewPlannerError("sessions.Delete", "session", ErrServiceUnavailable)
	}
	return nil
}

// Update runs fn under a short SETNX lease so concurrent selections on
// the same session serialize across processes.
func (r *RedisSessionStore) Update(ctx context.Context, id string, fn func(*Session) error) error {
	lockKey := r.key(id) + ":lock"

	// Acquire the lease, retrying until the context expires.
	for {
		ok, err := r.client.SetNX(ctx, lockKey, "1", 10*time.Second).Result()
		if err != nil {
			return NewPlannerError("sessions.Update", "session", ErrServiceUnavailable)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return NewPlannerError("sessions.Update", "session", ErrTimeout)
		case <-time.After(25 * time.Millisecond):
		}
	}
	defer r.client.Del(ctx, lockKey)

	session, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(session); err != nil {
		return err
	}
	return r.save(ctx, session)
}

// GCExpired is a no-op for Redis: the TTL is native. It exists to satisfy
// SessionStore.
func (r *RedisSessionStore) GCExpired(ctx context.Context) (int, error) {
	return 0, nil
}

// Close closes the underlying Redis connection.
func (r *RedisSessionStore) Close() error {
	return r.client.Close()
}

func (r *RedisSessionStore) save(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return &PlannerError{Op: "sessions.save", Kind: "session", ID: session.ID,
			Message: "failed to marshal session", Err: err}
	}
	if err := r.client.Set(ctx, r.key(session.ID), string(data), r.ttl).Err(); err != nil {
		return NewPlannerError("sessions.save", "session", ErrServiceUnavailable)
	}
	return nil
}

func (r *RedisSessionStore) key(id string) string {
	return r.namespace + ":" + id
}
