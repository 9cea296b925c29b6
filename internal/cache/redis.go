package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// Redis implements Cache on a Redis server.
type Redis struct {
	client     redis.UniversalClient
	markupTTL  time.Duration
	sessionTTL time.Duration
}

// NewRedis wraps client. A zero TTL stores entries without expiry.
func NewRedis(client redis.UniversalClient, markupTTL, sessionTTL time.Duration) *Redis {
	return &Redis{client: client, markupTTL: markupTTL, sessionTTL: sessionTTL}
}

// Connect parses a redis:// URL and verifies connectivity.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *Redis) GetMarkup(ctx context.Context, userID int64, resumeID string, version int) (string, error) {
	val, err := r.client.Get(ctx, MarkupKey(userID, resumeID, version)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get markup: %w", err)
	}
	return val, nil
}

func (r *Redis) SetMarkup(ctx context.Context, userID int64, resumeID string, version int, markup string) error {
	if err := r.client.Set(ctx, MarkupKey(userID, resumeID, version), markup, r.markupTTL).Err(); err != nil {
		return fmt.Errorf("redis set markup: %w", err)
	}
	return nil
}

func (r *Redis) DeleteMarkup(ctx context.Context, userID int64, resumeID string, version int) error {
	if err := r.client.Del(ctx, MarkupKey(userID, resumeID, version)).Err(); err != nil {
		return fmt.Errorf("redis delete markup: %w", err)
	}
	return nil
}

func (r *Redis) AppendSession(ctx context.Context, userID int64, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	key := sessionMessagesKey(userID)
	pipe := r.client.TxPipeline()
	for _, turn := range turns {
		payload, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("encode session turn: %w", err)
		}
		pipe.RPush(ctx, key, payload)
	}
	if r.sessionTTL > 0 {
		pipe.Expire(ctx, key, r.sessionTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append session: %w", err)
	}
	return nil
}

func (r *Redis) Session(ctx context.Context, userID int64, limit int) ([]Turn, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := r.client.LRange(ctx, sessionMessagesKey(userID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read session: %w", err)
	}
	turns := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var turn Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (r *Redis) ClearUser(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, sessionKey(userID), sessionMessagesKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis clear session: %w", err)
	}

	var batch []string
	iter := r.client.Scan(ctx, 0, markupPattern(userID), scanBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis clear markup: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan markup: %w", err)
	}
	if len(batch) > 0 {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis clear markup: %w", err)
		}
	}
	return nil
}

var _ Cache = (*Redis)(nil)
