package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultSessionTTL = 2 * time.Hour
	maxUpdateAttempts = 10
)

// SessionStore keeps one wizard State per session id.
type SessionStore interface {
	Get(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, id string, s State) error
	Delete(ctx context.Context, id string) error
}

// SessionUpdater is implemented by stores that can run a read-modify-write on
// one session atomically across processes.
type SessionUpdater interface {
	Update(ctx context.Context, id string, fn func(State) (State, error)) (State, error)
}

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in process. Entries expire after the TTL
// of inactivity; a restart loses everything.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessionStore creates an in-memory store.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &MemorySessionStore{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.sessions[id]
	if !ok {
		return State{}, ErrSessionNotFound
	}
	if m.now().After(entry.expiresAt) {
		delete(m.sessions, id)
		return State{}, ErrSessionNotFound
	}
	return entry.state.Clone(), nil
}

func (m *MemorySessionStore) Save(_ context.Context, id string, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = memoryEntry{state: s.Clone(), expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemorySessionStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, entry := range m.sessions {
		if now.After(entry.expiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MemorySessionStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// RedisSessionStore keeps sessions in Redis so several API instances can
// serve one wizard. Update uses WATCH so concurrent actions from different
// instances retry instead of overwriting each other. Each save refreshes the
// TTL.
type RedisSessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisSessionStore creates a Redis-backed store.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if client == nil {
		panic("booking: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisSessionStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("nailstudio.internal.booking.sessions"),
	}
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (State, error) {
	ctx, span := r.tracer.Start(ctx, "booking.session.get")
	defer span.End()

	data, err := r.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, ErrSessionNotFound
		}
		span.RecordError(err)
		return State{}, fmt.Errorf("booking: failed to load session: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		span.RecordError(err)
		return State{}, fmt.Errorf("booking: failed to decode session: %w", err)
	}
	return s.normalize(), nil
}

func (r *RedisSessionStore) Save(ctx context.Context, id string, s State) error {
	ctx, span := r.tracer.Start(ctx, "booking.session.save")
	defer span.End()

	data, err := json.Marshal(s)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking: failed to encode session: %w", err)
	}
	if err := r.redis.Set(ctx, sessionKey(id), data, r.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking: failed to persist session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "booking.session.delete")
	defer span.End()

	if err := r.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking: failed to delete session: %w", err)
	}
	return nil
}

// Update loads the session, applies fn and writes the result in a WATCH/MULTI
// transaction, retrying when another writer got there first. fn may run more
// than once.
func (r *RedisSessionStore) Update(ctx context.Context, id string, fn func(State) (State, error)) (State, error) {
	ctx, span := r.tracer.Start(ctx, "booking.session.update")
	defer span.End()

	key := sessionKey(id)
	var out State
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("booking: failed to load session: %w", err)
		}
		var current State
		if err := json.Unmarshal(data, &current); err != nil {
			return fmt.Errorf("booking: failed to decode session: %w", err)
		}
		next, err := fn(current.normalize())
		if err != nil {
			return err
		}
		encoded, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("booking: failed to encode session: %w", err)
		}
		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, r.ttl)
			return nil
		}); err != nil {
			return err
		}
		out = next
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.redis.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			span.RecordError(err)
			return State{}, err
		}
		return out, nil
	}
	span.RecordError(ErrSessionConflict)
	return State{}, ErrSessionConflict
}

func sessionKey(id string) string {
	return fmt.Sprintf("booking:session:%s", id)
}
