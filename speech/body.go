package speech

import (
	"io"
	"sync"
	"sync/atomic"
)

// ReleaseOnClose wraps body so release runs exactly once, when the body is
// closed. Engines use it to hold a concurrency slot for the life of a stream.
func ReleaseOnClose(body io.ReadCloser, release func()) io.ReadCloser {
	return &releasingBody{ReadCloser: body, release: release}
}

type releasingBody struct {
	io.ReadCloser
	once    sync.Once
	release func()
}

func (b *releasingBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.release)
	return err
}

// CountingReader counts bytes as they are read.
type CountingReader struct {
	io.ReadCloser
	n atomic.Int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.ReadCloser) *CountingReader {
	return &CountingReader{ReadCloser: r}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// Count returns the bytes read so far.
func (c *CountingReader) Count() int64 {
	return c.n.Load()
}
