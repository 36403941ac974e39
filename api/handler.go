// Package api holds the HTTP handlers of the meditation service.
package api

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/bleitz/meditai/archive"
	"github.com/bleitz/meditai/errors"
	"github.com/bleitz/meditai/logger"
	"github.com/bleitz/meditai/meditation"
	"github.com/bleitz/meditai/script"
	"github.com/bleitz/meditai/server"
	"github.com/bleitz/meditai/timing"
	"github.com/bleitz/meditai/validation"
)

// Response headers.
const (
	HeaderWarning = "X-Meditation-Warning"
	HeaderClipID  = "X-Clip-Id"
)

const copyBufferSize = 32 << 10

// Pipeline is the meditation service as seen by the handlers.
type Pipeline interface {
	Script(ctx context.Context, topic string, minutes float64) (script.Document, error)
	Compile(ctx context.Context, doc script.Document, minutes float64) (*timing.Result, error)
	Synthesize(ctx context.Context, doc script.Document, minutes float64, opts meditation.SynthesisOptions) (*meditation.Stream, error)
	Generate(ctx context.Context, topic string, minutes float64, opts meditation.SynthesisOptions) (*meditation.Stream, error)
	Open(ctx context.Context, id string) (*archive.Clip, error)
}

var _ Pipeline = (*meditation.Service)(nil)

// Handler serves the /api routes.
type Handler struct {
	pipeline Pipeline
	log      *logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(pipeline Pipeline, log *logger.Logger) *Handler {
	return &Handler{pipeline: pipeline, log: log.WithComponent("api")}
}

// Register mounts the handlers on the /api group.
func (h *Handler) Register(api *gin.RouterGroup) {
	api.POST("/script", h.Script)
	api.POST("/compile", h.Compile)
	api.POST("/audio", h.Audio)
	api.POST("/meditation", h.Meditation)
	api.GET("/archive/:id", h.Archive)
}

// Script generates a script for a topic.
func (h *Handler) Script(c *gin.Context) {
	var req ScriptRequest
	if !bind(c, &req) {
		return
	}
	doc, err := h.pipeline.Script(c.Request.Context(), req.Topic, float64(req.Duration))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, doc)
}

// Compile returns the timed markup and plan for a script without synthesizing it.
func (h *Handler) Compile(c *gin.Context) {
	var req CompileRequest
	if !bind(c, &req) {
		return
	}
	doc, err := req.Document()
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	res, err := h.pipeline.Compile(c.Request.Context(), doc, float64(req.Duration))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if res.TooShort() {
		c.Header(HeaderWarning, meditation.WarningDurationTooShort)
	}
	server.RespondOK(c, res)
}

// Audio synthesizes a script and streams the audio.
func (h *Handler) Audio(c *gin.Context) {
	var req AudioRequest
	if !bind(c, &req) {
		return
	}
	doc, err := req.Document()
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	stream, err := h.pipeline.Synthesize(c.Request.Context(), doc, float64(req.Duration),
		meditation.SynthesisOptions{File: req.File})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.streamAudio(c, stream)
}

// Meditation runs the whole pipeline for a topic and streams the audio.
func (h *Handler) Meditation(c *gin.Context) {
	var req MeditationRequest
	if !bind(c, &req) {
		return
	}
	stream, err := h.pipeline.Generate(c.Request.Context(), req.Topic, float64(req.Duration),
		meditation.SynthesisOptions{File: req.File})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	h.streamAudio(c, stream)
}

// Archive streams a saved clip.
func (h *Handler) Archive(c *gin.Context) {
	id := c.Param("id")
	clip, err := h.pipeline.Open(c.Request.Context(), id)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	defer func() { _ = clip.Body.Close() }()

	c.Header(HeaderClipID, clip.ID)
	c.Header("Content-Disposition", `inline; filename="`+clip.ID+`.mp3"`)
	h.writeAudio(c, clip.Body, clip.ContentType, clip.Size)
}

func (h *Handler) streamAudio(c *gin.Context, stream *meditation.Stream) {
	defer func() { _ = stream.Close() }()
	if stream.ID != "" {
		c.Header(HeaderClipID, stream.ID)
	}
	if w := stream.Warning(); w != "" {
		c.Header(HeaderWarning, w)
	}
	h.writeAudio(c, stream, stream.ContentType, stream.Size)
}

// writeAudio copies body to the client, flushing every chunk. Once the status
// line is out a failure can only be signalled by dropping the connection.
func (h *Handler) writeAudio(c *gin.Context, body io.Reader, contentType string, size int64) {
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "no-store")
	c.Header("X-Content-Type-Options", "nosniff")
	if size > 0 {
		c.Header("Content-Length", strconv.FormatInt(size, 10))
	}
	c.Status(http.StatusOK)

	n, err := copyFlush(c.Writer, body)
	log := h.log.WithContext(c.Request.Context())
	switch {
	case err == nil:
		log.Debug("audio sent", logger.Fields(logger.FieldBytes, n, "size", humanize.Bytes(uint64(n))))
	case c.Request.Context().Err() != nil:
		log.Info("client went away during audio stream", logger.Fields(logger.FieldBytes, n))
	default:
		log.Error("audio stream failed", logger.Fields(
			logger.FieldBytes, n,
			logger.FieldError, err.Error(),
		))
		panic(http.ErrAbortHandler)
	}
}

func copyFlush(w gin.ResponseWriter, r io.Reader) (int64, error) {
	buf := make([]byte, copyBufferSize)
	var total int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			written, werr := w.Write(buf[:n])
			total += int64(written)
			if werr != nil {
				return total, werr
			}
			w.Flush()
		}
		if stderrors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// bind decodes and validates the JSON body, answering the request on failure.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		server.RespondWithError(c, bindError(err))
		return false
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return false
	}
	return true
}

func bindError(err error) error {
	var maxBytes *http.MaxBytesError
	if _, ok := errors.AsAppError(err); ok || stderrors.As(err, &maxBytes) {
		return err
	}
	if stderrors.Is(err, io.EOF) {
		return errors.InvalidInput("body", "request body is empty")
	}
	return errors.InvalidInput("body", "request body must be a JSON object").WithCause(err)
}
