package storage

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// compressState zstd-compresses an encoded snapshot for the state column.
func compressState(b []byte) ([]byte, error) {
	compressed := bytes.NewBuffer(nil)
	w, err := zstd.NewWriter(compressed, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("storage: cannot create zstd writer: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return nil, fmt.Errorf("storage: cannot compress state: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("storage: cannot close zstd writer: %w", err)
	}
	return compressed.Bytes(), nil
}

// decompressState reverses compressState.
func decompressState(data []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("storage: cannot create zstd reader: %w", err)
	}
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot decompress state: %w", err)
	}
	return b, nil
}
