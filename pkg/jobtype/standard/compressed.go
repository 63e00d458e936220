package standard

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"github.com/ChuLiYu/jobtypes/pkg/jobtype"
)

// DataEntry is the name of the single archive entry holding a compressed value.
const DataEntry = "data"

// compressionMethod is the behaviour of a CompressionMethod class.
type compressionMethod struct {
	method     uint16
	compressor zip.Compressor
	// nil uses the reader's built-in decompressor for method
	decompressor zip.Decompressor
}

var (
	// CompressionMethod is the abstract parent of the archive methods
	// accepted by Compressed.
	CompressionMethod = jobtype.MustDefine(jobtype.ClassSpec{
		Name:     "CompressionMethod",
		Abstract: true,
	})

	Stored = defineMethod("Stored", compressionMethod{method: zip.Store})

	Deflate = defineMethod("Deflate", compressionMethod{
		method: zip.Deflate,
		compressor: func(w io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(w, flate.DefaultCompression)
		},
	})

	Zstd = defineMethod("Zstd", compressionMethod{
		method:       zstd.ZipMethodWinZip,
		compressor:   zstd.ZipCompressor(),
		decompressor: zstd.ZipDecompressor(),
	})

	// Compressed<Inner, Method> stores Inner's binary encoding as the single
	// entry of a zip archive.
	Compressed = jobtype.MustDefine(jobtype.ClassSpec{
		Name: "Compressed",
		Params: []jobtype.Bound{
			jobtype.OfClass(jobtype.Base),
			jobtype.OfClass(CompressionMethod),
		},
		Behaviour: compressedBehaviour{},
	})
)

func defineMethod(name string, m compressionMethod) *jobtype.Class {
	return jobtype.MustDefine(jobtype.ClassSpec{
		Name:      name,
		Parent:    CompressionMethod,
		Behaviour: m,
	})
}

type compressedBehaviour struct{}

func compressedArgs(t *jobtype.Type) (*jobtype.Type, compressionMethod, error) {
	inner, _ := t.TypeArg(0)
	methodType, _ := t.TypeArg(1)
	m, ok := methodType.Class().Behaviour().(compressionMethod)
	if !ok {
		return nil, compressionMethod{}, fmt.Errorf("%s is not a compression method: %w", methodType, jobtype.ErrUnsupportedEncoding)
	}
	return inner, m, nil
}

func (compressedBehaviour) FormatBinary(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type, v any) ([]byte, error) {
	inner, m, err := compressedArgs(t)
	if err != nil {
		return nil, err
	}
	data, err := reg.FormatBinary(ctx, inner, v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if m.compressor != nil {
		zw.RegisterCompressor(m.method, m.compressor)
	}
	w, err := zw.CreateHeader(&zip.FileHeader{Name: DataEntry, Method: m.method})
	if err != nil {
		return nil, fmt.Errorf("compressed: create entry: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("compressed: write entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compressed: close archive: %w", err)
	}
	return buf.Bytes(), nil
}

func (compressedBehaviour) ParseBinary(ctx context.Context, reg *jobtype.Registry, t *jobtype.Type, data []byte) (any, error) {
	inner, m, err := compressedArgs(t)
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, jobtype.ShapeErrorf("not a zip archive: %v", err)
	}
	if m.decompressor != nil {
		zr.RegisterDecompressor(m.method, m.decompressor)
	}

	for _, f := range zr.File {
		if f.Name != DataEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, jobtype.ShapeErrorf("open %q entry: %v", DataEntry, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, jobtype.ShapeErrorf("read %q entry: %v", DataEntry, err)
		}
		return reg.ParseBinary(ctx, inner, content)
	}
	return nil, jobtype.ShapeErrorf("archive has no %q entry", DataEntry)
}
