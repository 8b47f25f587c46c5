package resultstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore writes each run as a hash, and indexes run IDs in a sorted set by start time.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore connects to addr, or localhost:6379 if addr is empty. The connection is made lazily.
func NewRedisStore(addr string) *RedisStore {
	if addr == "" {
		addr = "localhost:6379"
	}
	return &RedisStore{redis: redis.NewClient(&redis.Options{Addr: addr})}
}

func (r *RedisStore) DSN() string {
	return fmt.Sprintf("redis://%s", r.redis.Options().Addr)
}

func redisRunKey(rec RunRecord) string {
	return keyPrefix + ":run:" + rec.RunID.String()
}

func redisIndexKey() string {
	return keyPrefix + ":runs"
}

func (r *RedisStore) SaveRun(ctx context.Context, rec RunRecord) error {
	failures, err := json.Marshal(rec.Failures)
	if err != nil {
		return err
	}
	fields := map[string]string{
		"serviceName": rec.ServiceName,
		"startedAt":   strconv.FormatInt(rec.StartedAt.UnixMilli(), 10),
		"finishedAt":  strconv.FormatInt(rec.FinishedAt.UnixMilli(), 10),
		"passed":      strconv.Itoa(rec.Passed),
		"failed":      strconv.Itoa(rec.Failed),
		"skipped":     strconv.Itoa(rec.Skipped),
		"failures":    string(failures),
	}
	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisRunKey(rec), fields)
		pipe.ZAdd(ctx, redisIndexKey(), redis.Z{Score: float64(rec.StartedAt.UnixMilli()), Member: rec.RunID.String()})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save of run %s failed: %w", rec.RunID, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.redis.Close()
}
