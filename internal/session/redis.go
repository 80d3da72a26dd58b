package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "sess"

// RedisStore хранит значения сессий в Redis, каждое под своим ключом с TTL.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore создаёт хранилище сессий поверх клиента Redis.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// NewRedisStoreFromURL подключается к Redis по URL вида redis://host:port/db и проверяет соединение.
func NewRedisStoreFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping redis: %v", ErrStoreUnavailable, err)
	}

	return NewRedisStore(client, defaultRedisPrefix, ttl), nil
}

func (s *RedisStore) key(sid, namespace string) string {
	return s.prefix + ":" + sid + ":" + namespace
}

// Get возвращает значение или ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, sid, namespace string) ([]byte, error) {
	v, err := s.redis.Get(ctx, s.key(sid, namespace)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return v, nil
}

// Set сохраняет значение и продлевает его TTL.
func (s *RedisStore) Set(ctx context.Context, sid, namespace string, value []byte) error {
	if err := s.redis.Set(ctx, s.key(sid, namespace), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Take читает и удаляет значение одной командой GETDEL.
func (s *RedisStore) Take(ctx context.Context, sid, namespace string) ([]byte, error) {
	v, err := s.redis.GetDel(ctx, s.key(sid, namespace)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return v, nil
}

// Delete удаляет значение.
func (s *RedisStore) Delete(ctx context.Context, sid, namespace string) error {
	if err := s.redis.Del(ctx, s.key(sid, namespace)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (s *RedisStore) Close() error {
	return s.redis.Close()
}
