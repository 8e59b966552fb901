package codec

import (
	"maps"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/hupe1980/pagelog/internal/wire"
	"github.com/hupe1980/pagelog/message"
)

const (
	fieldID      protowire.Number = 1
	fieldCreated protowire.Number = 2
	fieldData    protowire.Number = 3
	fieldHeaders protowire.Number = 4

	fieldHeaderKey   protowire.Number = 1
	fieldHeaderValue protowire.Number = 2

	fieldMessages protowire.Number = 1
)

// appendRecord appends the protobuf encoding of rec. Zero scalars are
// omitted and headers are written in key order, so output is deterministic.
func appendRecord(b []byte, rec *message.Record) []byte {
	b = wire.AppendVarint(b, fieldID, rec.ID)
	b = wire.AppendVarint(b, fieldCreated, rec.Created)
	if len(rec.Payload) > 0 {
		b = wire.AppendBytes(b, fieldData, rec.Payload)
	}
	for _, k := range slices.Sorted(maps.Keys(rec.Headers)) {
		var h []byte
		h = protowire.AppendTag(h, fieldHeaderKey, protowire.BytesType)
		h = protowire.AppendString(h, k)
		h = protowire.AppendTag(h, fieldHeaderValue, protowire.BytesType)
		h = protowire.AppendString(h, rec.Headers[k])

		b = wire.AppendBytes(b, fieldHeaders, h)
	}
	return b
}

func marshalRecord(rec *message.Record) []byte {
	return appendRecord(nil, rec)
}

// marshalList encodes records as a list message with one field per record.
func marshalList(records []message.Record) []byte {
	var b []byte
	for i := range records {
		b = wire.AppendBytes(b, fieldMessages, marshalRecord(&records[i]))
	}
	return b
}

func unmarshalRecord(b []byte) (message.Record, error) {
	var rec message.Record
	err := wire.WalkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldID:
			return wire.Varint(typ, b, &rec.ID)
		case fieldCreated:
			return wire.Varint(typ, b, &rec.Created)
		case fieldData:
			v, n, err := wire.Bytes(typ, b)
			if err != nil {
				return 0, err
			}
			rec.Payload = append([]byte(nil), v...)
			return n, nil
		case fieldHeaders:
			v, n, err := wire.Bytes(typ, b)
			if err != nil {
				return 0, err
			}
			k, val, err := unmarshalHeader(v)
			if err != nil {
				return 0, err
			}
			if rec.Headers == nil {
				rec.Headers = make(map[string]string)
			}
			rec.Headers[k] = val
			return n, nil
		default:
			return -1, nil
		}
	})
	return rec, err
}

func unmarshalHeader(b []byte) (key, value string, err error) {
	err = wire.WalkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldHeaderKey, fieldHeaderValue:
			v, n, err := wire.Bytes(typ, b)
			if err != nil {
				return 0, err
			}
			if num == fieldHeaderKey {
				key = string(v)
			} else {
				value = string(v)
			}
			return n, nil
		default:
			return -1, nil
		}
	})
	return key, value, err
}

func unmarshalList(b []byte) ([]message.Record, error) {
	var out []message.Record
	err := wire.WalkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldMessages {
			return -1, nil
		}
		v, n, err := wire.Bytes(typ, b)
		if err != nil {
			return 0, err
		}
		rec, err := unmarshalRecord(v)
		if err != nil {
			return 0, err
		}
		out = append(out, rec)
		return n, nil
	})
	return out, err
}
