package slot

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Proto encodes a Snapshot as protobuf wire format without generated code:
//
//	message Snapshot { repeated Item feed = 1; google.protobuf.Timestamp timestamp = 2; }
//	message Item     { bytes id = 1; string description = 2; string location = 3; string url = 4; }
//
// Unknown fields are skipped on decode.
type Proto struct{}

const (
	fieldFeed      protowire.Number = 1
	fieldTimestamp protowire.Number = 2

	fieldItemID          protowire.Number = 1
	fieldItemDescription protowire.Number = 2
	fieldItemLocation    protowire.Number = 3
	fieldItemURL         protowire.Number = 4
)

var errMissingTimestamp = errors.New("proto snapshot: missing timestamp")

func (Proto) Encode(s Snapshot) ([]byte, error) {
	var b []byte
	for _, it := range s.Feed {
		var ib []byte
		ib = protowire.AppendTag(ib, fieldItemID, protowire.BytesType)
		ib = protowire.AppendBytes(ib, it.ID[:])
		if it.Description != "" {
			ib = protowire.AppendTag(ib, fieldItemDescription, protowire.BytesType)
			ib = protowire.AppendString(ib, it.Description)
		}
		if it.Location != "" {
			ib = protowire.AppendTag(ib, fieldItemLocation, protowire.BytesType)
			ib = protowire.AppendString(ib, it.Location)
		}
		ib = protowire.AppendTag(ib, fieldItemURL, protowire.BytesType)
		ib = protowire.AppendString(ib, it.URL)

		b = protowire.AppendTag(b, fieldFeed, protowire.BytesType)
		b = protowire.AppendBytes(b, ib)
	}

	ts := timestamppb.New(s.Timestamp)
	if err := ts.CheckValid(); err != nil {
		return nil, fmt.Errorf("proto snapshot: %w", err)
	}
	tb, err := proto.MarshalOptions{Deterministic: true}.Marshal(ts)
	if err != nil {
		return nil, err
	}
	b = protowire.AppendTag(b, fieldTimestamp, protowire.BytesType)
	b = protowire.AppendBytes(b, tb)
	return b, nil
}

func (Proto) Decode(b []byte) (Snapshot, error) {
	var (
		s      Snapshot
		seenTS bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Snapshot{}, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldFeed && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Snapshot{}, protowire.ParseError(n)
			}
			it, err := decodeItem(v)
			if err != nil {
				return Snapshot{}, err
			}
			s.Feed = append(s.Feed, it)
			b = b[n:]

		case num == fieldTimestamp && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Snapshot{}, protowire.ParseError(n)
			}
			var ts timestamppb.Timestamp
			if err := proto.Unmarshal(v, &ts); err != nil {
				return Snapshot{}, fmt.Errorf("proto snapshot timestamp: %w", err)
			}
			if err := ts.CheckValid(); err != nil {
				return Snapshot{}, fmt.Errorf("proto snapshot timestamp: %w", err)
			}
			s.Timestamp = ts.AsTime()
			seenTS = true
			b = b[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Snapshot{}, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	if !seenTS {
		return Snapshot{}, errMissingTimestamp
	}
	return s, nil
}

func decodeItem(b []byte) (Item, error) {
	var (
		it     Item
		seenID bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Item{}, protowire.ParseError(n)
		}
		b = b[n:]
		if typ != protowire.BytesType {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Item{}, protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return Item{}, protowire.ParseError(n)
		}
		b = b[n:]

		switch num {
		case fieldItemID:
			if len(v) != len(it.ID) {
				return Item{}, fmt.Errorf("proto snapshot: item id has %d bytes", len(v))
			}
			copy(it.ID[:], v)
			seenID = true
		case fieldItemDescription:
			it.Description = string(v)
		case fieldItemLocation:
			it.Location = string(v)
		case fieldItemURL:
			it.URL = string(v)
		}
	}
	if !seenID {
		return Item{}, errors.New("proto snapshot: item without id")
	}
	return it, nil
}
