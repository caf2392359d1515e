// Package providertest checks a provider.Provider against the slot contract.
package providertest

import (
	"bytes"
	"context"
	"testing"

	pr "github.com/unkn0wn-root/feedcache/provider"
)

// Factory returns a provider over a fresh, empty slot. Cleanup is the
// factory's job (t.Cleanup).
type Factory func(t *testing.T) pr.Provider

// Run executes the provider conformance suite as subtests.
func Run(t *testing.T, newProvider Factory) {
	t.Helper()

	t.Run("GetOnEmptyMisses", func(t *testing.T) {
		ctx := context.Background()
		p := newProvider(t)
		for i := 0; i < 2; i++ {
			b, ok, err := p.Get(ctx)
			if err != nil || ok || b != nil {
				t.Fatalf("Get on empty: b=%q ok=%v err=%v", b, ok, err)
			}
		}
	})

	t.Run("SetThenGetIsTransparent", func(t *testing.T) {
		ctx := context.Background()
		p := newProvider(t)
		want := []byte{0x00, 'F', 'E', 'E', 'D', 0xFF, 0x10}
		if err := p.Set(ctx, want); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, ok, err := p.Get(ctx)
		if err != nil || !ok || !bytes.Equal(got, want) {
			t.Fatalf("Get after Set: got=%x ok=%v err=%v want=%x", got, ok, err, want)
		}
	})

	t.Run("SetReplacesPrevious", func(t *testing.T) {
		ctx := context.Background()
		p := newProvider(t)
		if err := p.Set(ctx, []byte("first-and-longer")); err != nil {
			t.Fatalf("Set first: %v", err)
		}
		if err := p.Set(ctx, []byte("second")); err != nil {
			t.Fatalf("Set second: %v", err)
		}
		got, ok, err := p.Get(ctx)
		if err != nil || !ok || string(got) != "second" {
			t.Fatalf("Get after overwrite: got=%q ok=%v err=%v", got, ok, err)
		}
	})

	t.Run("DelEmptiesAndIsIdempotent", func(t *testing.T) {
		ctx := context.Background()
		p := newProvider(t)
		if err := p.Del(ctx); err != nil {
			t.Fatalf("Del on empty: %v", err)
		}
		if err := p.Set(ctx, []byte("x")); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := p.Del(ctx); err != nil {
			t.Fatalf("Del: %v", err)
		}
		if err := p.Del(ctx); err != nil {
			t.Fatalf("second Del: %v", err)
		}
		if _, ok, err := p.Get(ctx); err != nil || ok {
			t.Fatalf("Get after Del: ok=%v err=%v", ok, err)
		}
	})

	t.Run("GetDoesNotAliasSetInput", func(t *testing.T) {
		ctx := context.Background()
		p := newProvider(t)
		in := []byte("stable")
		if err := p.Set(ctx, in); err != nil {
			t.Fatalf("Set: %v", err)
		}
		in[0] = 'X'
		got, _, err := p.Get(ctx)
		if err != nil || string(got) != "stable" {
			t.Fatalf("stored bytes changed with caller buffer: %q err=%v", got, err)
		}
	})
}
