package codec

import (
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/pagelog/message"
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithZeroFrames(true))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// Zstd stores the record list in one zstd frame.
type Zstd struct{}

// Name returns "zstd".
func (Zstd) Name() string { return "zstd" }

// Encode implements Codec.
func (Zstd) Encode(records []message.Record) ([]byte, error) {
	enc, err := getZstdEncoder()
	if err != nil {
		return nil, err
	}
	defer zstdEncoderPool.Put(enc)

	return enc.EncodeAll(marshalList(records), nil), nil
}

// Decode implements Codec.
func (Zstd) Decode(data []byte) ([]message.Record, error) {
	dec, err := getZstdDecoder()
	if err != nil {
		return nil, err
	}
	defer zstdDecoderPool.Put(dec)

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, corrupt("zstd", err)
	}
	out, err := unmarshalList(raw)
	if err != nil {
		return nil, corrupt("zstd", err)
	}
	return out, nil
}
