package codec

import (
	"bytes"
	"io"
	"strconv"

	"github.com/klauspost/compress/zip"

	"github.com/hupe1980/pagelog/message"
)

const singleEntryName = "d"

// ZipFiles stores one Deflate-compressed zip entry per record, named by the
// decimal message id.
type ZipFiles struct{}

// Name returns "zip-files".
func (ZipFiles) Name() string { return "zip-files" }

// Encode implements Codec.
func (ZipFiles) Encode(records []message.Record) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i := range records {
		if err := writeEntry(zw, strconv.FormatInt(records[i].ID, 10), marshalRecord(&records[i])); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode implements Codec.
func (ZipFiles) Decode(data []byte) ([]message.Record, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, corrupt("zip-files", err)
	}
	return decodeFiles(zr)
}

// ZipSingle stores the whole record list in a single zip entry named "d".
type ZipSingle struct{}

// Name returns "zip-single".
func (ZipSingle) Name() string { return "zip-single" }

// Encode implements Codec.
func (ZipSingle) Encode(records []message.Record) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := writeEntry(zw, singleEntryName, marshalList(records)); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode implements Codec.
func (ZipSingle) Decode(data []byte) ([]message.Record, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, corrupt("zip-single", err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != singleEntryName {
		return nil, &ErrEntryName{Name: firstEntryName(zr)}
	}
	return decodeSingle(zr.File[0])
}

// zipAuto decodes both zip layouts.
type zipAuto struct{}

func (zipAuto) Name() string { return "zip" }

func (zipAuto) Encode(records []message.Record) ([]byte, error) {
	return ZipFiles{}.Encode(records)
}

func (zipAuto) Decode(data []byte) ([]message.Record, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, corrupt("zip", err)
	}
	if len(zr.File) == 1 && zr.File[0].Name == singleEntryName {
		return decodeSingle(zr.File[0])
	}
	return decodeFiles(zr)
}

func writeEntry(zw *zip.Writer, name string, payload []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	})
	if err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func decodeFiles(zr *zip.Reader) ([]message.Record, error) {
	out := make([]message.Record, 0, len(zr.File))
	for _, f := range zr.File {
		id, err := strconv.ParseInt(f.Name, 10, 64)
		if err != nil {
			return nil, &ErrEntryName{Name: f.Name}
		}
		b, err := readEntry(f)
		if err != nil {
			return nil, corrupt("zip-files", err)
		}
		rec, err := unmarshalRecord(b)
		if err != nil {
			return nil, corrupt("zip-files", err)
		}
		// proto3 omits a zero id; the entry name carries it.
		rec.ID = id
		out = append(out, rec)
	}
	return out, nil
}

func decodeSingle(f *zip.File) ([]message.Record, error) {
	b, err := readEntry(f)
	if err != nil {
		return nil, corrupt("zip-single", err)
	}
	out, err := unmarshalList(b)
	if err != nil {
		return nil, corrupt("zip-single", err)
	}
	return out, nil
}

func firstEntryName(zr *zip.Reader) string {
	if len(zr.File) == 0 {
		return ""
	}
	return zr.File[0].Name
}
