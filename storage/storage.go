// Package storage is the object store behind the audio archive. Backends
// register themselves by provider name; see storage/local and storage/s3.
package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"time"
)

// ErrNotFound is returned (wrapped) when an object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// FileInfo describes a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage is an object store addressed by slash-separated keys.
type Storage interface {
	// Upload writes r to key, replacing any existing object.
	Upload(ctx context.Context, key string, r io.Reader) error
	// Download opens key for reading. The caller closes the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// URL returns a locator for key (file:// or https://).
	URL(ctx context.Context, key string) (string, error)
	// List returns objects whose key starts with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

var extraTypes = map[string]string{
	".mp3": "audio/mpeg",
	".zst": "application/zstd",
	".xml": "application/ssml+xml",
}

// ContentType guesses the content type of key from its extension.
func ContentType(key string) string {
	ext := path.Ext(key)
	if ct, ok := extraTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
