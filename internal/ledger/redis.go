package ledger

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"SwingSentinel/internal/model"
)

const DefaultRedisKey = "swingsentinel:ledger"

// RedisStore keeps the ledger as one JSON value under a single key.
type RedisStore struct {
	client *goredis.Client
	key    string
}

// NewRedisStore connects to addr and pings the server.
func NewRedisStore(ctx context.Context, addr, key string) (*RedisStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}, nil
}

// Load reads the ledger value. A missing key is an empty ledger.
func (s *RedisStore) Load(ctx context.Context) ([]model.Position, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	positions, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.key, err)
	}
	return positions, nil
}

// Save overwrites the key with a single SET.
func (s *RedisStore) Save(ctx context.Context, positions []model.Position) error {
	data, err := encode(positions)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
