package binio

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// CompressTo returns a writer that zstd-compresses into w. Close flushes the
// frame but does not close w.
func CompressTo(w io.Writer) (io.WriteCloser, error) {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("binio: zstd writer: %w", err)
	}
	return zw, nil
}

// DecompressFrom returns a reader over the zstd stream in r.
func DecompressFrom(r io.Reader) (io.ReadCloser, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("binio: zstd reader: %w", err)
	}
	return zr.IOReadCloser(), nil
}
