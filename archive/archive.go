// Package archive keeps synthesized clips in object storage so they can be
// streamed again later. Each clip is stored as <prefix>/<id>.mp3 next to a
// zstd-compressed copy of the markup that produced it, <prefix>/<id>.ssml.zst.
package archive

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	apperrors "github.com/bleitz/meditai/errors"
	"github.com/bleitz/meditai/logger"
	"github.com/bleitz/meditai/speech"
	"github.com/bleitz/meditai/storage"
)

const (
	audioExt  = ".mp3"
	markupExt = ".ssml.zst"
)

// ErrTooLarge is returned when a clip exceeds Config.MaxBytes.
var ErrTooLarge = stderrors.New("archive: clip exceeds size limit")

// Entry describes an archived clip.
type Entry struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url,omitempty"`
}

// Clip is an archived clip opened for reading. The caller closes Body.
type Clip struct {
	ID          string
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Archive stores clips in a storage backend.
type Archive struct {
	store    storage.Storage
	prefix   string
	maxBytes int64
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
	log      *logger.Logger
}

// New creates an archive on top of store.
func New(store storage.Storage, cfg Config, log *logger.Logger) (*Archive, error) {
	if store == nil {
		return nil, fmt.Errorf("archive: storage is required")
	}
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(cfg.encoderLevel()))
	if err != nil {
		return nil, fmt.Errorf("archive: create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("archive: create zstd decoder: %w", err)
	}

	return &Archive{
		store:    store,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		maxBytes: cfg.MaxBytes,
		encoder:  enc,
		decoder:  dec,
		log:      log.WithComponent("archive"),
	}, nil
}

// NewID returns a fresh clip id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape NewID produces.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

func (a *Archive) audioKey(id string) string  { return path.Join(a.prefix, id+audioExt) }
func (a *Archive) markupKey(id string) string { return path.Join(a.prefix, id+markupExt) }

// Save stores audio and its markup under id. The markup sidecar is written
// first so a listed clip always has one.
func (a *Archive) Save(ctx context.Context, id string, audio io.Reader, markup string) (*Entry, error) {
	if !ValidID(id) {
		return nil, apperrors.InvalidInput("id", "clip id must be a UUID")
	}
	start := time.Now()

	compressed := a.encoder.EncodeAll([]byte(markup), nil)
	if err := a.store.Upload(ctx, a.markupKey(id), bytes.NewReader(compressed)); err != nil {
		return nil, fmt.Errorf("archive: save markup: %w", err)
	}

	body := &limitedReader{r: audio, remaining: a.maxBytes}
	if err := a.store.Upload(ctx, a.audioKey(id), body); err != nil {
		_ = a.store.Delete(ctx, a.markupKey(id))
		return nil, fmt.Errorf("archive: save audio: %w", err)
	}

	entry := &Entry{ID: id, Key: a.audioKey(id), Size: body.read, CreatedAt: time.Now().UTC()}
	if u, err := a.store.URL(ctx, entry.Key); err == nil {
		entry.URL = u
	}
	a.log.Info("clip archived", logger.Fields(
		logger.FieldClipID, id,
		logger.FieldBytes, entry.Size,
		"markup_bytes", len(compressed),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return entry, nil
}

// Open streams an archived clip.
func (a *Archive) Open(ctx context.Context, id string) (*Clip, error) {
	if !ValidID(id) {
		return nil, apperrors.NotFound("clip", id)
	}
	body, err := a.store.Download(ctx, a.audioKey(id))
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFound("clip", id)
		}
		return nil, apperrors.Internal(fmt.Errorf("archive: open clip: %w", err))
	}
	return &Clip{ID: id, Body: body, ContentType: speech.ContentTypeMPEG, Size: -1}, nil
}

// Markup returns the markup a clip was synthesized from.
func (a *Archive) Markup(ctx context.Context, id string) (string, error) {
	if !ValidID(id) {
		return "", apperrors.NotFound("clip", id)
	}
	rc, err := a.store.Download(ctx, a.markupKey(id))
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return "", apperrors.NotFound("clip", id)
		}
		return "", apperrors.Internal(fmt.Errorf("archive: open markup: %w", err))
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("archive: read markup: %w", err))
	}
	plain, err := a.decoder.DecodeAll(data, nil)
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("archive: decompress markup: %w", err))
	}
	return string(plain), nil
}

// Delete removes a clip and its markup.
func (a *Archive) Delete(ctx context.Context, id string) error {
	if !ValidID(id) {
		return apperrors.NotFound("clip", id)
	}
	return stderrors.Join(
		a.store.Delete(ctx, a.audioKey(id)),
		a.store.Delete(ctx, a.markupKey(id)),
	)
}

// List returns archived clips sorted by key.
func (a *Archive) List(ctx context.Context) ([]Entry, error) {
	files, err := a.store.List(ctx, a.prefix+"/")
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		if !strings.HasSuffix(f.Path, audioExt) {
			continue
		}
		entries = append(entries, Entry{
			ID:        strings.TrimSuffix(path.Base(f.Path), audioExt),
			Key:       f.Path,
			Size:      f.Size,
			CreatedAt: f.LastModified,
		})
	}
	return entries, nil
}

// Close releases the zstd encoder and decoder.
func (a *Archive) Close() error {
	a.decoder.Close()
	return a.encoder.Close()
}

type limitedReader struct {
	r         io.Reader
	remaining int64
	read      int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		// Probe one byte to tell an exact fit from an overflow.
		var probe [1]byte
		n, err := l.r.Read(probe[:])
		if n > 0 {
			return 0, ErrTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	l.read += int64(n)
	return n, err
}
