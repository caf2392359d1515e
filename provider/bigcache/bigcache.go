package bigcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	bc "github.com/allegro/bigcache/v3"

	pr "github.com/unkn0wn-root/feedcache/provider"
)

const (
	defaultKey        = "feedcache:slot"
	defaultLifeWindow = 30 * 24 * time.Hour
)

// Provider keeps the slot in an in-process BigCache. Nothing survives a
// restart; use it for ephemeral caches and tests.
type Provider struct {
	c   *bc.BigCache
	key string
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	Key                string        // "" => "feedcache:slot"
	LifeWindow         time.Duration // 0 => 30 days; must outlive the freshness window
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	life := cfg.LifeWindow
	if life <= 0 {
		life = defaultLifeWindow
	}
	conf := bc.DefaultConfig(life)
	conf.Shards = 1 // one key; more shards only cost memory
	conf.MaxEntriesInWindow = 1
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	key := cfg.Key
	if key == "" {
		key = defaultKey
	}
	return &Provider{c: c, key: key}, nil
}

func (p *Provider) Get(_ context.Context) ([]byte, bool, error) {
	b, err := p.c.Get(p.key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set replaces the slot. BigCache drops the old entry before pushing the new
// one and may evict while making room, so a failed push restores the
// previous bytes to keep the replace atomic.
func (p *Provider) Set(_ context.Context, value []byte) error {
	prev, prevErr := p.c.Get(p.key)
	if err := p.c.Set(p.key, value); err != nil {
		if prevErr == nil {
			if rerr := p.c.Set(p.key, prev); rerr != nil {
				return errors.Join(pr.ErrRejected, err, fmt.Errorf("restore previous: %w", rerr))
			}
		}
		return errors.Join(pr.ErrRejected, err)
	}
	return nil
}

func (p *Provider) Del(_ context.Context) error {
	err := p.c.Delete(p.key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil
	}
	return err
}

func (p *Provider) Close(_ context.Context) error {
	return p.c.Close()
}
