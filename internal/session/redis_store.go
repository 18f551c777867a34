package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const sessionKeyPrefix = "session:"

// RedisStore keeps conversation state as one JSON document per key. Each
// write refreshes the TTL, so abandoned conversations expire on their own.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
	now    func() time.Time
}

// NewRedisStore creates a store on client. ttl <= 0 disables expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("rentbot.internal.session"),
		now:    time.Now,
	}
}

func redisKey(key string) string {
	return sessionKeyPrefix + key
}

// Get loads the state for key; a missing key is the idle state.
func (s *RedisStore) Get(ctx context.Context, key string) (State, error) {
	ctx, span := s.tracer.Start(ctx, "session.get")
	defer span.End()

	data, err := s.redis.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, nil
		}
		span.RecordError(err)
		return State{}, fmt.Errorf("session: failed to load state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		span.RecordError(err)
		return State{}, fmt.Errorf("session: failed to decode state: %w", err)
	}
	return st, nil
}

// Merge adds fields to the stored state.
func (s *RedisStore) Merge(ctx context.Context, key string, fields map[string]string) error {
	st, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if st.Fields == nil {
		st.Fields = make(map[string]string, len(fields))
	}
	maps.Copy(st.Fields, fields)
	return s.save(ctx, key, st)
}

// SetStep moves key to step.
func (s *RedisStore) SetStep(ctx context.Context, key string, step Step) error {
	if !step.Valid() {
		return fmt.Errorf("session: refusing unknown step %q", step.String())
	}
	st, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	st.Step = step
	return s.save(ctx, key, st)
}

// Clear deletes the stored state.
func (s *RedisStore) Clear(ctx context.Context, key string) error {
	ctx, span := s.tracer.Start(ctx, "session.clear")
	defer span.End()

	if err := s.redis.Del(ctx, redisKey(key)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to clear state: %w", err)
	}
	return nil
}

func (s *RedisStore) save(ctx context.Context, key string, st State) error {
	ctx, span := s.tracer.Start(ctx, "session.save")
	defer span.End()

	st.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(st)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal state: %w", err)
	}
	if err := s.redis.Set(ctx, redisKey(key), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist state: %w", err)
	}
	return nil
}
