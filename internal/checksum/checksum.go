// Package checksum computes the SHA-256 digests and gzip encodings that
// back the index reconciler's content-addressed artifact names.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// File hashes the complete byte contents of path, returning the lowercase
// hex digest and the file's size.
func File(path string) (sum string, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Bytes hashes an in-memory buffer, used for the open-checksum of XML
// artifacts before they are gzipped.
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Reader wraps r so that its bytes are hashed as they are read, letting
// callers compute a checksum while streaming without buffering twice.
type Reader struct {
	r io.Reader
	h hash256
}

type hash256 interface {
	io.Writer
	Sum(b []byte) []byte
}

// NewReader returns a Reader over r. Call Sum after fully consuming it.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, h: sha256.New()}
}

func (c *Reader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.h.Write(p[:n])
	}
	return n, err
}

// Sum returns the lowercase hex digest of everything read so far.
func (c *Reader) Sum() string {
	return hex.EncodeToString(c.h.Sum(nil))
}
