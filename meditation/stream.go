package meditation

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bleitz/meditai/logger"
	"github.com/bleitz/meditai/observability"
	"github.com/bleitz/meditai/script"
	"github.com/bleitz/meditai/speech"
	"github.com/bleitz/meditai/timing"
)

// WarningDurationTooShort is the advisory set when the target could not hold
// any silence.
const WarningDurationTooShort = "duration_too_short"

// Stream is synthesized audio on its way to the client. It must be closed.
type Stream struct {
	// ID is the archive id of the clip, empty when it is not archived.
	ID          string
	Script      script.Document
	Result      *timing.Result
	ContentType string
	// Size is the audio length in bytes, or -1 when unknown.
	Size int64

	body     *speech.CountingReader
	provider string
	started  time.Time
	cancel   context.CancelFunc
	metrics  *observability.Metrics
	ctx      context.Context
	log      *logger.Logger
	once     sync.Once
	closeErr error
}

func (s *Stream) Read(p []byte) (int, error) {
	return s.body.Read(p)
}

// Close releases the upstream connection and records the stream.
func (s *Stream) Close() error {
	s.once.Do(func() {
		s.closeErr = s.body.Close()
		s.cancel()

		n, elapsed := s.body.Count(), time.Since(s.started)
		if s.metrics != nil {
			s.metrics.StreamFinished(s.ctx, s.provider, n, elapsed)
		}
		s.log.Info("audio stream closed", logger.Fields(
			logger.FieldClipID, s.ID,
			logger.FieldBytes, n,
			"size", humanize.Bytes(uint64(n)),
			logger.FieldSynthesisDur, elapsed.Milliseconds(),
		))
	})
	return s.closeErr
}

// Bytes returns how many audio bytes have been read so far.
func (s *Stream) Bytes() int64 {
	return s.body.Count()
}

// Warning returns the advisory code for the clip, or "".
func (s *Stream) Warning() string {
	if s.Result != nil && s.Result.TooShort() {
		return WarningDurationTooShort
	}
	return ""
}

var _ io.ReadCloser = (*Stream)(nil)
