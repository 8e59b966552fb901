// Package codec packs ordered message records into portable blobs.
//
// Every record is encoded with a protobuf layout
// (id=1, created=2, data=3, headers=4). Formats differ only in how the
// records are packed:
//
//   - zip-files:  zip archive with one Deflate entry per record, named by id
//   - zip-single: zip archive with a single entry "d" holding the record list
//   - zstd:       zstd frame holding the record list
//   - lz4:        lz4 frame holding the record list
//
// Changing the codec of a topic is a breaking-change boundary for writers,
// but Decode detects the format of any blob from its leading magic bytes.
package codec

import (
	"bytes"

	"github.com/hupe1980/pagelog/message"
)

// Codec encodes and decodes record batches.
// Implementations must be safe for concurrent use.
type Codec interface {
	Encode(records []message.Record) ([]byte, error)
	Decode(data []byte) ([]message.Record, error)
	Name() string
}

// Default is the codec used when none is configured.
var Default Codec = ZipFiles{}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case ZipFiles{}.Name():
		return ZipFiles{}, true
	case ZipSingle{}.Name():
		return ZipSingle{}, true
	case Zstd{}.Name():
		return Zstd{}, true
	case LZ4{}.Name():
		return LZ4{}, true
	default:
		return nil, false
	}
}

// Names lists the built-in codec names.
func Names() []string {
	return []string{ZipFiles{}.Name(), ZipSingle{}.Name(), Zstd{}.Name(), LZ4{}.Name()}
}

var (
	zipMagic      = []byte("PK\x03\x04")
	zipEmptyMagic = []byte("PK\x05\x06")
	zstdMagic     = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic      = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Detect returns the codec able to decode data.
func Detect(data []byte) (Codec, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic), bytes.HasPrefix(data, zipEmptyMagic):
		return zipAuto{}, nil
	case bytes.HasPrefix(data, zstdMagic):
		return Zstd{}, nil
	case bytes.HasPrefix(data, lz4Magic):
		return LZ4{}, nil
	default:
		return nil, ErrUnknownFormat
	}
}

// Decode decodes a blob written by any built-in codec.
func Decode(data []byte) ([]message.Record, error) {
	c, err := Detect(data)
	if err != nil {
		return nil, err
	}
	return c.Decode(data)
}
