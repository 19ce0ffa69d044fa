package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-newsletter/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the durable home of subscriptions and the per-pass run log.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

const runLogTTL = 30 * 24 * time.Hour

// Ping checks the redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func subscriberKey(email string) string {
	return fmt.Sprintf("newsletter:subscriber:%s", email)
}

func subscriberIndexKey() string {
	return "newsletter:subscribers"
}

func runLogKey(day time.Time) string {
	return fmt.Sprintf("newsletter:log:%s", day.UTC().Format("2006-01-02"))
}

// TopicsKey returns the canonical serialization of a topic set, used as the
// content deduplication key and stored verbatim in run-log rows. Order is
// preserved as selected by the subscriber.
func TopicsKey(topics []string) string {
	b, _ := json.Marshal(topics)
	return string(b)
}

// UpsertSubscriber creates or replaces a subscription and reports whether it
// already existed. An upsert reactivates an inactive subscriber.
func (s *RedisStore) UpsertSubscriber(ctx context.Context, sub model.Subscriber) (existed bool, err error) {
	n, err := s.rdb.Exists(ctx, subscriberKey(sub.Email)).Result()
	if err != nil {
		return false, err
	}
	existed = n > 0
	b, err := json.Marshal(sub)
	if err != nil {
		return existed, err
	}
	if err := s.rdb.Set(ctx, subscriberKey(sub.Email), b, 0).Err(); err != nil {
		return existed, err
	}
	return existed, s.rdb.SAdd(ctx, subscriberIndexKey(), sub.Email).Err()
}

// GetSubscriber fetches one subscription; ok is false when none exists.
func (s *RedisStore) GetSubscriber(ctx context.Context, email string) (sub model.Subscriber, ok bool, err error) {
	b, err := s.rdb.Get(ctx, subscriberKey(email)).Bytes()
	if err == redis.Nil {
		return model.Subscriber{}, false, nil
	}
	if err != nil {
		return model.Subscriber{}, false, err
	}
	if err := json.Unmarshal(b, &sub); err != nil {
		return model.Subscriber{}, false, err
	}
	return sub, true, nil
}

// ListSubscribers returns every stored subscription, active or not.
func (s *RedisStore) ListSubscribers(ctx context.Context) ([]model.Subscriber, error) {
	emails, err := s.rdb.SMembers(ctx, subscriberIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.Subscriber, 0, len(emails))
	for _, email := range emails {
		b, err := s.rdb.Get(ctx, subscriberKey(email)).Bytes()
		if err == redis.Nil {
			// index entry without a record; skip
			continue
		}
		if err != nil {
			return nil, err
		}
		var sub model.Subscriber
		if err := json.Unmarshal(b, &sub); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// ListActiveSubscribers returns subscriptions with the active flag set.
func (s *RedisStore) ListActiveSubscribers(ctx context.Context) ([]model.Subscriber, error) {
	all, err := s.ListSubscribers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Subscriber, 0, len(all))
	for _, sub := range all {
		if sub.Active {
			out = append(out, sub)
		}
	}
	return out, nil
}

// AppendRunLog commits one pass's run-log rows in a single transaction so a
// crash mid-pass leaves no partial log.
func (s *RedisStore) AppendRunLog(ctx context.Context, records []model.RunRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, rec := range records {
			b, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			key := runLogKey(rec.SentAt)
			pipe.RPush(ctx, key, b)
			pipe.Expire(ctx, key, runLogTTL)
		}
		return nil
	})
	return err
}

// CountRunsForDay returns how many run-log rows were written on the given
// UTC day.
func (s *RedisStore) CountRunsForDay(ctx context.Context, day time.Time) (int64, error) {
	n, err := s.rdb.LLen(ctx, runLogKey(day)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
