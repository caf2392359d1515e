package codec

import "fmt"

// LimitCodec rejects oversized input on both sides: Encode refuses to produce
// more than MaxSize bytes and Decode refuses to parse more than MaxSize bytes.
// MaxSize <= 0 disables the check.
type LimitCodec[V any] struct {
	Inner   Codec[V]
	MaxSize int
}

var _ Codec[struct{}] = LimitCodec[struct{}]{}

func (c LimitCodec[V]) Encode(v V) ([]byte, error) {
	b, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	if c.MaxSize > 0 && len(b) > c.MaxSize {
		return nil, fmt.Errorf("codec: encoded size too large: %d > %d", len(b), c.MaxSize)
	}
	return b, nil
}

func (c LimitCodec[V]) Decode(b []byte) (V, error) {
	if c.MaxSize > 0 && len(b) > c.MaxSize {
		var zero V
		return zero, fmt.Errorf("codec: payload too large: %d > %d", len(b), c.MaxSize)
	}
	return c.Inner.Decode(b)
}
