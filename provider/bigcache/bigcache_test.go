package bigcache

import (
	"context"
	"testing"

	pr "github.com/unkn0wn-root/feedcache/provider"
	"github.com/unkn0wn-root/feedcache/provider/providertest"
)

func TestBigCacheConformance(t *testing.T) {
	providertest.Run(t, func(t *testing.T) pr.Provider {
		p, err := New(context.Background(), Config{})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		t.Cleanup(func() { _ = p.Close(context.Background()) })
		return p
	})
}

func TestOversizedSetIsRejectedAndKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, Config{HardMaxCacheSizeMB: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close(ctx)

	if err := p.Set(ctx, []byte("small")); err != nil {
		t.Fatalf("Set small: %v", err)
	}
	if err := p.Set(ctx, make([]byte, 2<<20)); err == nil {
		t.Fatalf("expected oversized Set to fail")
	}
	got, ok, err := p.Get(ctx)
	if err != nil || !ok || string(got) != "small" {
		t.Fatalf("previous value lost: got=%q ok=%v err=%v", got, ok, err)
	}
}
