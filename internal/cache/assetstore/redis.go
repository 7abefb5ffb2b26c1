package assetstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "newsreader:assets"

// Redis keeps a set of store names and one hash per store
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to the Redis instance at rawURL
func NewRedis(rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Redis{client: client, prefix: defaultKeyPrefix}, nil
}

// WithPrefix namespaces every key, so several workers can share one instance
func (r *Redis) WithPrefix(prefix string) *Redis {
	r.prefix = prefix
	return r
}

func (r *Redis) namesKey() string {
	return r.prefix + ":stores"
}

func (r *Redis) storeKey(name string) string {
	return r.prefix + ":store:" + name
}

func (r *Redis) Open(ctx context.Context, name string) (Bucket, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	if err := r.client.SAdd(ctx, r.namesKey(), name).Err(); err != nil {
		return nil, fmt.Errorf("redis open store %q: %w", name, err)
	}

	return &redisBucket{name: name, key: r.storeKey(name), client: r.client}, nil
}

func (r *Redis) Names(ctx context.Context) ([]string, error) {
	names, err := r.client.SMembers(ctx, r.namesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list stores: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (r *Redis) Delete(ctx context.Context, name string) (bool, error) {
	pipe := r.client.TxPipeline()
	removed := pipe.SRem(ctx, r.namesKey(), name)
	pipe.Del(ctx, r.storeKey(name))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis delete store %q: %w", name, err)
	}
	return removed.Val() > 0, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

type redisBucket struct {
	name   string
	key    string
	client *redis.Client
}

func (b *redisBucket) Name() string {
	return b.name
}

func (b *redisBucket) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := b.client.HGet(ctx, b.key, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return data, true, nil
}

func (b *redisBucket) Put(ctx context.Context, key string, value []byte) error {
	if err := b.client.HSet(ctx, b.key, key, value).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}
