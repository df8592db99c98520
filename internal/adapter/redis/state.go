// Package redis implements the persisted session-state port on Redis.
// Each session lives under one JSON value with a server-side TTL, so an
// abandoned session disappears on its own.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/praxis-suite/praxis/internal/domain"
	"github.com/praxis-suite/praxis/internal/port/sessionstate"
)

const keyPrefix = "praxis:session:"

// StateStore implements sessionstate.Store.
type StateStore struct {
	client *goredis.Client
}

var _ sessionstate.Store = (*StateStore)(nil)

// New connects to Redis and verifies connectivity.
func New(ctx context.Context, addr, password string, db int) (*StateStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &StateStore{client: client}, nil
}

func (s *StateStore) Load(ctx context.Context, key string) (*sessionstate.State, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("session state %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load session state: %w", err)
	}
	var st sessionstate.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}
	return &st, nil
}

func (s *StateStore) Save(ctx context.Context, key string, st *sessionstate.State, ttl time.Duration) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	return nil
}

// Touch rewrites only the last-activity timestamp, keeping the TTL that
// Save established.
func (s *StateStore) Touch(ctx context.Context, key string, at time.Time) error {
	st, err := s.Load(ctx, key)
	if err != nil {
		return err
	}
	st.LastActivity = at
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, data, goredis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("touch session state: %w", err)
	}
	return nil
}

func (s *StateStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete session state: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *StateStore) Close() error {
	return s.client.Close()
}
