package wire

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/cespare/xxhash/v2"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 1 + 8 + 4
)

var (
	ErrCorrupt  = errors.New("feedcache: corrupt snapshot")
	ErrVersion  = errors.New("feedcache: unsupported snapshot version")
	ErrChecksum = errors.New("feedcache: snapshot checksum mismatch")
	magic4      = [...]byte{'F', 'E', 'E', 'D'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Envelope: magic(4) | ver(1) | codec(1) | xxhash64(payload)(u64 be) | plen(u32 be) | payload(plen)
func Encode(codec byte, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(codec)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], xxhash.Sum64(payload))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// Decode validates the envelope and returns the codec tag and payload.
// The payload aliases b.
func Decode(b []byte) (codec byte, payload []byte, err error) {
	if len(b) < hdrLen || !hasMagic(b) {
		return 0, nil, ErrCorrupt
	}
	if b[4] != version {
		return 0, nil, ErrVersion
	}
	codec = b[5]

	off := 6
	sum := binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	plen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if plen < 0 || plen != len(b)-off { // strict: no truncation, no trailing bytes
		return 0, nil, ErrCorrupt
	}
	payload = b[off:]
	if xxhash.Sum64(payload) != sum {
		return 0, nil, ErrChecksum
	}
	return codec, payload, nil
}
