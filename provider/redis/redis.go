package redis

import (
	"context"
	"errors"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/feedcache/provider"
)

var (
	ErrNilClient = errors.New("redis provider: nil client")
	ErrNoKey     = errors.New("redis provider: key is required")
)

// Redis keeps the slot under one key. SET replaces the value atomically.
type Redis struct {
	rdb         goredis.UniversalClient
	key         string
	closeClient bool
}

var _ pr.Provider = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	Key         string
	CloseClient bool // set true only if this provider exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, ErrNoKey
	}
	return &Redis{rdb: cfg.Client, key: cfg.Key, closeClient: cfg.CloseClient}, nil
}

func (p *Redis) Get(ctx context.Context) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, p.key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, value []byte) error {
	// no expiry: freshness is decided by the loader, not the medium
	return p.rdb.Set(ctx, p.key, value, 0).Err()
}

func (p *Redis) Del(ctx context.Context) error {
	return p.rdb.Del(ctx, p.key).Err()
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
