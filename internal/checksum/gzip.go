package checksum

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"
)

// GzipWriter is satisfied by both the serial and parallel gzip writers so
// callers can pick one without branching on the concrete type.
type GzipWriter interface {
	io.WriteCloser
}

// Gzip compresses data with the serial gzip encoder. Used by default for
// portability across small repositories where parallel encoding gains
// nothing.
func Gzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GzipParallel compresses data with pgzip, splitting the stream into 1 MiB
// independently-compressed blocks and compressing up to concurrency of them
// at once on pgzip's own goroutines. The gunzip of its output
// is bit-identical to Gzip's; only the compressed byte layout and the
// wall-clock cost differ, per the block-parallel gzip requirement on
// large artifacts.
func GzipParallel(data []byte, concurrency int) ([]byte, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	var buf bytes.Buffer
	w, err := pgzip.NewWriterLevel(&buf, pgzip.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if err := w.SetConcurrency(1<<20, concurrency); err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Gunzip decompresses a gzip stream fully into memory.
func Gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
