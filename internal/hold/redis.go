package hold

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// holdsKey is the Redis hash holding all suspended bills, keyed by hold ID.
const holdsKey = "pos:held_bills"

var _ Store = (*RedisStore)(nil)

// RedisStore keeps held bills in a Redis hash so a bill held on one terminal
// can be recalled on another.
type RedisStore struct {
	client *redis.Client

	now   func() time.Time
	newID func() string
}

// NewRedisStore creates a RedisStore over the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// Hold stores the bill under a fresh identity and returns it.
func (s *RedisStore) Hold(ctx context.Context, bill Bill) (string, error) {
	if len(bill.Lines) == 0 {
		return "", ErrEmptyCart
	}

	bill.ID = s.newID()
	bill.HeldAt = s.now()

	raw, err := json.Marshal(bill)
	if err != nil {
		return "", errors.Wrap(err, "marshal held bill")
	}
	if err := s.client.HSet(ctx, holdsKey, bill.ID, raw).Err(); err != nil {
		return "", errors.Wrap(err, "store held bill")
	}
	return bill.ID, nil
}

// Recall removes the bill and returns it. The delete count decides the
// winner when two terminals recall the same bill concurrently.
func (s *RedisStore) Recall(ctx context.Context, id string) (*Bill, error) {
	raw, err := s.client.HGet(ctx, holdsKey, id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "fetch held bill")
	}

	removed, err := s.client.HDel(ctx, holdsKey, id).Result()
	if err != nil {
		return nil, errors.Wrap(err, "remove held bill")
	}
	if removed == 0 {
		return nil, ErrNotFound
	}

	var bill Bill
	if err := json.Unmarshal(raw, &bill); err != nil {
		return nil, errors.Wrap(err, "unmarshal held bill")
	}
	return &bill, nil
}

// Delete removes the bill if present.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.HDel(ctx, holdsKey, id).Err(); err != nil {
		return errors.Wrap(err, "delete held bill")
	}
	return nil
}

// List returns all held bills, oldest first.
func (s *RedisStore) List(ctx context.Context) ([]Bill, error) {
	raw, err := s.client.HGetAll(ctx, holdsKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "list held bills")
	}

	out := make([]Bill, 0, len(raw))
	for _, v := range raw {
		var bill Bill
		if err := json.Unmarshal([]byte(v), &bill); err != nil {
			return nil, errors.Wrap(err, "unmarshal held bill")
		}
		out = append(out, bill)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HeldAt.Before(out[j].HeldAt) })
	return out, nil
}
