package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage is a byte blob key-value store on top of a go-redis client.
// It satisfies session.Backend.
type Storage struct {
	db     redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// StorageOption configures a Storage.
type StorageOption func(*Storage)

// WithKeyPrefix namespaces every key.
func WithKeyPrefix(prefix string) StorageOption {
	return func(s *Storage) {
		s.prefix = prefix
	}
}

// WithTTL sets the expiration applied on every Set. Zero means no expiration.
func WithTTL(ttl time.Duration) StorageOption {
	return func(s *Storage) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// NewStorage wraps client.
func NewStorage(client redis.UniversalClient, opts ...StorageOption) *Storage {
	s := &Storage{db: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStorageWithConfig applies the prefix and TTL from cfg.
func NewStorageWithConfig(client redis.UniversalClient, cfg Config) *Storage {
	return NewStorage(client, WithKeyPrefix(cfg.KeyPrefix), WithTTL(cfg.SessionTTL))
}

// Get returns (nil, nil) when the key does not exist.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	val, err := s.db.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.db.Set(ctx, s.prefix+key, value, s.ttl).Err()
}

// Delete removes key. Missing keys are not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.db.Del(ctx, s.prefix+key).Err()
}

// Conn returns the underlying client.
func (s *Storage) Conn() redis.UniversalClient {
	return s.db
}
