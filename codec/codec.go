// Package codec converts snapshot values to and from bytes.
//
// A Codec is stateless from the caller's point of view and must be safe for
// concurrent use. Decode(Encode(v)) must reproduce v for every value the
// caller stores; anything the format cannot represent exactly (time zones,
// monotonic clock readings) is the caller's job to normalize first.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
