package ristretto

import (
	"context"
	"errors"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/feedcache/provider"
)

const defaultKey = "feedcache:slot"

// Provider keeps the slot in an in-process Ristretto cache. Writes are
// flushed with Wait before Set returns so a following Get observes them.
type Provider struct {
	c   *rc.Cache
	key string
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	Key         string // "" => "feedcache:slot"
	NumCounters int64  // 0 => 1e4
	MaxCost     int64  // bytes; 0 => 64 MiB
	BufferItems int64  // 0 => 64
	Metrics     bool
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters < 0 || cfg.MaxCost < 0 || cfg.BufferItems < 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: coalesce(cfg.NumCounters, 1e4),
		MaxCost:     coalesce(cfg.MaxCost, 64<<20),
		BufferItems: coalesce(cfg.BufferItems, 64),
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	key := cfg.Key
	if key == "" {
		key = defaultKey
	}
	return &Provider{c: c, key: key}, nil
}

func coalesce(v, def int64) int64 {
	if v == 0 {
		return def
	}
	return v
}

func (p *Provider) Get(_ context.Context) ([]byte, bool, error) {
	v, ok := p.c.Get(p.key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// unexpected entry shape; report as empty and drop it
		p.c.Del(p.key)
		return nil, false, nil
	}
	return b, true, nil
}

// Set costs the entry by its size. Ristretto may refuse an admission; the
// previous value stays in place and ErrRejected is returned.
func (p *Provider) Set(_ context.Context, value []byte) error {
	cp := append([]byte(nil), value...)
	ok := p.c.Set(p.key, cp, int64(len(cp))+1)
	p.c.Wait()
	if !ok {
		return pr.ErrRejected
	}
	if _, found := p.c.Get(p.key); !found {
		return pr.ErrRejected
	}
	return nil
}

func (p *Provider) Del(_ context.Context) error {
	p.c.Del(p.key)
	p.c.Wait()
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics exposes Ristretto metrics (nil unless Config.Metrics).
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
