// Package flash carries one-shot status messages from a mutating request to the next read,
// keyed by session id and held in Redis.
package flash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message kinds
const (
	KindSuccess = "success"
	KindError   = "error"
)

type Message struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// backend is the subset of redis.Cmdable the store needs.
type backend interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

// Store keeps at most one pending message per session; a new message replaces the old one.
type Store struct {
	client backend
	ttl    time.Duration
	logger *slog.Logger
}

// NewClient connects to Redis from a redis:// URL and verifies the connection.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}

	return client, nil
}

func NewStore(client backend, ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{client: client, ttl: ttl, logger: logger}
}

func key(sessionID string) string {
	return "flash:" + sessionID
}

// Success queues a success message for the session.
func (s *Store) Success(ctx context.Context, sessionID, message string) {
	s.push(ctx, sessionID, Message{Kind: KindSuccess, Message: message})
}

// Error queues a failure message for the session.
func (s *Store) Error(ctx context.Context, sessionID, message string) {
	s.push(ctx, sessionID, Message{Kind: KindError, Message: message})
}

// push never fails the caller; store errors are logged.
func (s *Store) push(ctx context.Context, sessionID string, m Message) {
	if sessionID == "" {
		return
	}

	data, err := json.Marshal(m)
	if err != nil {
		s.logger.Error("failed to encode flash message", slog.Any("error", err))
		return
	}

	if err := s.client.Set(ctx, key(sessionID), data, s.ttl).Err(); err != nil {
		s.logger.Warn("failed to store flash message",
			slog.String("session_id", sessionID),
			slog.Any("error", err),
		)
	}
}

// Pop returns and deletes the pending message, or nil when there is none.
func (s *Store) Pop(ctx context.Context, sessionID string) (*Message, error) {
	val, err := s.client.GetDel(ctx, key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read flash message: %w", err)
	}

	var m Message
	if err := json.Unmarshal([]byte(val), &m); err != nil {
		return nil, fmt.Errorf("failed to decode flash message: %w", err)
	}

	return &m, nil
}
