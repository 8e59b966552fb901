package codec

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/pagelog/message"
)

// LZ4 stores the record list in one lz4 frame.
type LZ4 struct{}

// Name returns "lz4".
func (LZ4) Name() string { return "lz4" }

// Encode implements Codec.
func (LZ4) Encode(records []message.Record) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(marshalList(records)); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode implements Codec.
func (LZ4) Decode(data []byte) ([]message.Record, error) {
	raw, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, corrupt("lz4", err)
	}
	out, err := unmarshalList(raw)
	if err != nil {
		return nil, corrupt("lz4", err)
	}
	return out, nil
}
