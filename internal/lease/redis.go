package lease

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

// Redis key layout:
//
//	checkout:lease:{cartID}  -> JSON-encoded Lease
//	checkout:lease:deadlines -> sorted set, member=cartID score=unix deadline
const (
	leaseKeyPrefix    = "checkout:lease:"
	leaseDeadlinesKey = "checkout:lease:deadlines"
)

// RedisStore is a Store backed by Redis, for deployments running more than
// one orchestrator replica: any replica's reaper can reclaim a cart locked by
// another.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a RedisStore on the given client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Acquire(ctx context.Context, l Lease) error {
	raw, err := json.Marshal(l)
	if err != nil {
		return errors.Wrap(err, "encode lease")
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, leaseKeyPrefix+l.CartID, raw, 0)
		p.ZAdd(ctx, leaseDeadlinesKey, redis.Z{
			Score:  float64(l.Deadline.Unix()),
			Member: l.CartID,
		})
		return nil
	})
	return errors.Wrap(err, "store lease")
}

func (s *RedisStore) Release(ctx context.Context, cartID string) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, leaseKeyPrefix+cartID)
		p.ZRem(ctx, leaseDeadlinesKey, cartID)
		return nil
	})
	return errors.Wrap(err, "release lease")
}

func (s *RedisStore) Expired(ctx context.Context, now time.Time) ([]Lease, error) {
	ids, err := s.rdb.ZRangeByScore(ctx, leaseDeadlinesKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: formatUnix(now),
	}).Result()
	if err != nil {
		return nil, errors.Wrap(err, "range expired leases")
	}

	leases := make([]Lease, 0, len(ids))
	for _, id := range ids {
		raw, err := s.rdb.Get(ctx, leaseKeyPrefix+id).Bytes()
		if errors.Is(err, redis.Nil) {
			// Lease body gone but deadline entry survived; drop the stray.
			_ = s.rdb.ZRem(ctx, leaseDeadlinesKey, id).Err()
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "load lease %s", id)
		}

		var l Lease
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, errors.Wrapf(err, "decode lease %s", id)
		}
		leases = append(leases, l)
	}
	return leases, nil
}

func formatUnix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
