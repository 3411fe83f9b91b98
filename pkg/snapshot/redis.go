package snapshot

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/stakegraph/pkg/errors"
	"github.com/matzehuels/stakegraph/pkg/observability"
)

// RedisConfig configures a [RedisStore].
type RedisConfig struct {
	Addr     string // host:port; defaults to localhost:6379
	Password string
	DB       int
	Prefix   string // key prefix; defaults to "stakegraph:snapshot:"
}

// RedisStore keeps each snapshot as a JSON string value and indexes IDs in
// a sorted set scored by creation time.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to redis at %s", cfg.Addr)
	}
	return newRedisStore(client, cfg.Prefix), nil
}

func newRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "stakegraph:snapshot:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(id string) string { return r.prefix + id }

func (r *RedisStore) indexKey() string { return r.prefix + "index" }

func (r *RedisStore) Save(ctx context.Context, s Snapshot) error {
	if err := checkID(s.ID); err != nil {
		return err
	}
	data, err := encode(s)
	if err == nil {
		pipe := r.client.TxPipeline()
		pipe.Set(ctx, r.key(s.ID), data, 0)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(s.CreatedAt.UnixNano()), Member: s.ID})
		if _, execErr := pipe.Exec(ctx); execErr != nil {
			err = errors.Wrap(errors.ErrCodeStorage, execErr, "save snapshot %s", s.ID)
		}
	}
	observability.Snapshot().OnSave(ctx, BackendRedis, len(data), err)
	return err
}

func (r *RedisStore) Get(ctx context.Context, id string) (Snapshot, error) {
	s, err := r.get(ctx, id)
	observability.Snapshot().OnLoad(ctx, BackendRedis, err)
	return s, err
}

func (r *RedisStore) get(ctx context.Context, id string) (Snapshot, error) {
	if err := checkID(id); err != nil {
		return Snapshot{}, err
	}
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return Snapshot{}, notFound(id)
	}
	if err != nil {
		return Snapshot{}, errors.Wrap(errors.ErrCodeStorage, err, "get snapshot %s", id)
	}
	return decode(data)
}

func (r *RedisStore) List(ctx context.Context) ([]Info, error) {
	ids, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list snapshots")
	}
	out := make([]Info, 0, len(ids))
	for _, id := range ids {
		s, err := r.get(ctx, id)
		if errors.Is(err, errors.ErrCodeSnapshotNotFound) {
			// Value expired or was removed out of band.
			r.client.ZRem(ctx, r.indexKey(), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s.Info())
	}
	return out, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, r.key(id))
	pipe.ZRem(ctx, r.indexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete snapshot %s", id)
	}
	if del.Val() == 0 {
		return notFound(id)
	}
	return nil
}

func (r *RedisStore) Backend() string { return BackendRedis }

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
