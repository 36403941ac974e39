package archive

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/bleitz/meditai/logger"
)

const recordTimeout = 30 * time.Second

// Recorder copies a stream into the archive while it is being read. The clip
// is saved when the stream is closed after reaching EOF; truncated or
// oversized streams are discarded.
type Recorder struct {
	archive *Archive
	ctx     context.Context
	id      string
	markup  string
	src     io.ReadCloser

	buf      bytes.Buffer
	complete bool
	overflow bool
	once     sync.Once
	entry    *Entry
	err      error
}

// Record wraps src so that everything read from it is archived under id.
// ctx supplies values such as the request id; its cancellation is ignored
// so a clip streamed to completion is still saved.
func (a *Archive) Record(ctx context.Context, id string, src io.ReadCloser, markup string) *Recorder {
	return &Recorder{archive: a, ctx: context.WithoutCancel(ctx), id: id, markup: markup, src: src}
}

// ID returns the clip id the stream is recorded under.
func (r *Recorder) ID() string { return r.id }

func (r *Recorder) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 && !r.overflow {
		if int64(r.buf.Len()+n) > r.archive.maxBytes {
			r.overflow = true
			r.buf = bytes.Buffer{}
		} else {
			r.buf.Write(p[:n])
		}
	}
	if err == io.EOF {
		r.complete = true
	}
	return n, err
}

// Close closes the source and saves the recording if it is complete.
func (r *Recorder) Close() error {
	err := r.src.Close()
	r.once.Do(r.save)
	return err
}

// Entry returns the saved entry, or nil with the reason it was not saved.
func (r *Recorder) Entry() (*Entry, error) {
	return r.entry, r.err
}

func (r *Recorder) save() {
	log := r.archive.log.WithContext(r.ctx)
	switch {
	case r.overflow:
		r.err = ErrTooLarge
		log.Warn("clip not archived", logger.Fields(logger.FieldClipID, r.id, logger.FieldError, r.err.Error()))
		return
	case !r.complete:
		r.err = io.ErrUnexpectedEOF
		log.Debug("incomplete stream not archived", logger.Fields(logger.FieldClipID, r.id))
		return
	}

	ctx, cancel := context.WithTimeout(r.ctx, recordTimeout)
	defer cancel()
	r.entry, r.err = r.archive.Save(ctx, r.id, bytes.NewReader(r.buf.Bytes()), r.markup)
	if r.err != nil {
		log.Error("clip archive failed", logger.ErrorFields("record", r.err))
	}
	r.buf = bytes.Buffer{}
}
