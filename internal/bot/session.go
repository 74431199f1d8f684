// Per-chat dialog state.
//
// The bot keeps a tiny amount of state between updates: whether the chat is
// in the date-selection step, and which cached picture is currently shown
// (so the explanation button can find it). State lives in Redis with a TTL so
// abandoned dialogs expire on their own.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Session is the per-chat dialog state.
type Session struct {
	// AwaitingDate is set while the chat is in the date-selection step.
	AwaitingDate bool `json:"awaiting_date,omitempty"`
	// ApodID is the store id of the currently shown picture.
	ApodID uint `json:"apod_id,omitempty"`
	// ApodDate is the ISO date of the currently shown picture.
	ApodDate string `json:"apod_date,omitempty"`
}

// Store persists per-chat sessions. A missing session reads as the zero
// Session, not an error.
type Store interface {
	Get(ctx context.Context, chatID int64) (Session, error)
	Put(ctx context.Context, chatID int64, s Session) error
	Clear(ctx context.Context, chatID int64) error
}

// RedisStore keeps sessions in Redis as JSON values with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a RedisStore. A ttl <= 0 stores sessions without
// expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("apod-bot:session:%d", chatID)
}

// Get reads the session for a chat. Absent keys yield the zero Session.
func (r *RedisStore) Get(ctx context.Context, chatID int64) (Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, nil
		}
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Put stores the session, refreshing the TTL.
func (r *RedisStore) Put(ctx context.Context, chatID int64, s Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(chatID), raw, r.ttl).Err()
}

// Clear removes the session for a chat.
func (r *RedisStore) Clear(ctx context.Context, chatID int64) error {
	return r.client.Del(ctx, sessionKey(chatID)).Err()
}
