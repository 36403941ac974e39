// Package meditation runs the pipeline end to end: a topic becomes a script,
// the script becomes timed markup, and the markup becomes an audio stream.
package meditation

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bleitz/meditai/archive"
	"github.com/bleitz/meditai/errors"
	"github.com/bleitz/meditai/logger"
	"github.com/bleitz/meditai/observability"
	"github.com/bleitz/meditai/script"
	"github.com/bleitz/meditai/speech"
	"github.com/bleitz/meditai/timing"
)

// Stage names used for spans, metrics and logs.
const (
	StageScript     = "script"
	StageCompile    = "compile"
	StageSynthesize = "synthesize"
	StageArchive    = "archive"
	StageGenerate   = "generate"
)

// ScriptSource produces a script for a topic. scriptgen.Generator implements it.
type ScriptSource interface {
	Generate(ctx context.Context, topic string, minutes float64) (script.Document, error)
}

// Deps are the collaborators of a Service. Scripts, Speech and Archive may be
// nil; the operations that need them then fail with SERVICE_UNAVAILABLE.
type Deps struct {
	Scripts  ScriptSource
	Compiler *timing.Compiler
	Speech   speech.Synthesizer
	Archive  *archive.Archive
	Metrics  *observability.Metrics
}

// SynthesisOptions selects how audio reaches the caller.
type SynthesisOptions struct {
	// File saves the whole clip to the archive first and streams it back from
	// there. Otherwise audio is streamed as it is synthesized and, when an
	// archive is configured, recorded on the way through.
	File bool
}

// Service is the meditation pipeline. It is safe for concurrent use.
type Service struct {
	deps Deps
	cfg  Config
	log  *logger.Logger
}

// New creates a Service. A nil Compiler uses the reference timing.
func New(deps Deps, cfg Config, log *logger.Logger) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Limits.Validate(); err != nil {
		return nil, err
	}
	if deps.Compiler == nil {
		c, err := timing.NewCompiler(timing.DefaultOptions())
		if err != nil {
			return nil, err
		}
		deps.Compiler = c
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{deps: deps, cfg: cfg, log: log.WithComponent("meditation")}, nil
}

// Limits returns the effective request limits.
func (s *Service) Limits() Limits { return s.cfg.Limits }

// Archiving reports whether clips can be archived.
func (s *Service) Archiving() bool { return s.deps.Archive != nil }

// Script asks the script source for a script about topic.
func (s *Service) Script(ctx context.Context, topic string, minutes float64) (doc script.Document, err error) {
	if s.deps.Scripts == nil {
		return script.Document{}, errors.ServiceUnavailable("script generator")
	}
	topic = strings.TrimSpace(topic)
	if len(topic) > s.cfg.Limits.MaxTopicLength {
		return script.Document{}, errors.InvalidInput("topic",
			fmt.Sprintf("topic must be at most %d characters", s.cfg.Limits.MaxTopicLength))
	}
	minutes = s.cfg.Limits.ClampMinutes(minutes)

	ctx, stage := observability.StartStage(ctx, s.deps.Metrics, StageScript, observability.SpanScript,
		observability.AttrTopicLength.Int(len(topic)),
		observability.AttrMinutes.Float64(minutes),
	)
	defer func() { stage.End(ctx, err) }()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ScriptTimeout)
	defer cancel()

	doc, err = s.deps.Scripts.Generate(ctx, topic, minutes)
	if err != nil {
		return script.Document{}, err
	}
	stage.SetAttributes(observability.AttrSegments.Int(doc.Len()), observability.AttrWords.Int(doc.Words()))
	return doc, nil
}

// Compile turns doc into timed markup for the clamped target length.
func (s *Service) Compile(ctx context.Context, doc script.Document, minutes float64) (res *timing.Result, err error) {
	if doc.Len() > s.cfg.Limits.MaxSegments {
		return nil, errors.InvalidScript(fmt.Sprintf("script has %d segments, at most %d allowed", doc.Len(), s.cfg.Limits.MaxSegments))
	}
	minutes = s.cfg.Limits.ClampMinutes(minutes)

	ctx, stage := observability.StartStage(ctx, s.deps.Metrics, StageCompile, observability.SpanCompile,
		observability.AttrSegments.Int(doc.Len()),
		observability.AttrMinutes.Float64(minutes),
	)
	defer func() { stage.End(ctx, err) }()

	res, err = s.deps.Compiler.Compile(doc, minutes)
	if err != nil {
		return nil, err
	}

	stage.SetAttributes(
		observability.AttrWords.Int(res.Plan.Words),
		observability.AttrBreaks.Int(res.Markup.Breaks()),
		observability.AttrSilenceSec.Int(res.Plan.EmittedSilenceSeconds),
		observability.AttrTooShort.Bool(res.TooShort()),
	)
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordCompile(ctx, res.Plan.EmittedSilenceSeconds, res.TooShort())
	}

	log := s.log.WithContext(ctx)
	fields := logger.Fields(
		logger.FieldSegments, doc.Len(),
		logger.FieldWords, res.Plan.Words,
		logger.FieldSpokenSec, res.Plan.SpokenSeconds,
		logger.FieldDesiredSec, res.Plan.DesiredSeconds,
		logger.FieldBreaks, res.Markup.Breaks(),
		logger.FieldSilenceSec, res.Plan.EmittedSilenceSeconds,
	)
	if res.TooShort() {
		fields[logger.FieldWarning] = WarningDurationTooShort
		log.Warn("script compiled with no room for silence", fields)
	} else {
		log.Debug("script compiled", fields)
	}
	return res, nil
}

// Synthesize compiles doc and opens an audio stream for it.
func (s *Service) Synthesize(ctx context.Context, doc script.Document, minutes float64, opts SynthesisOptions) (*Stream, error) {
	res, err := s.Compile(ctx, doc, minutes)
	if err != nil {
		return nil, err
	}
	stream, err := s.synthesize(ctx, res, opts)
	if err != nil {
		return nil, err
	}
	stream.Script = doc
	return stream, nil
}

// Generate runs the whole pipeline for topic.
func (s *Service) Generate(ctx context.Context, topic string, minutes float64, opts SynthesisOptions) (stream *Stream, err error) {
	ctx, stage := observability.StartStage(ctx, s.deps.Metrics, StageGenerate, observability.SpanGenerate,
		observability.AttrTopicLength.Int(len(topic)),
	)
	defer func() { stage.End(ctx, err) }()

	doc, err := s.Script(ctx, topic, minutes)
	if err != nil {
		return nil, err
	}
	return s.Synthesize(ctx, doc, minutes, opts)
}

// Open streams an archived clip.
func (s *Service) Open(ctx context.Context, id string) (*archive.Clip, error) {
	if s.deps.Archive == nil {
		return nil, errors.ServiceUnavailable("archive")
	}
	return s.deps.Archive.Open(ctx, id)
}

func (s *Service) synthesize(ctx context.Context, res *timing.Result, opts SynthesisOptions) (stream *Stream, err error) {
	if s.deps.Speech == nil {
		return nil, errors.ServiceUnavailable("speech engine")
	}
	if opts.File && s.deps.Archive == nil {
		return nil, errors.ServiceUnavailable("archive")
	}

	// The stream context outlives this call; Stream.Close cancels it.
	streamCtx, cancel := context.WithTimeout(ctx, s.cfg.StreamTimeout)
	defer func() {
		if err != nil {
			cancel()
		}
	}()

	sctx, stage := observability.StartStage(streamCtx, s.deps.Metrics, StageSynthesize, observability.SpanSynthesize,
		observability.AttrProvider.String(s.deps.Speech.Name()),
	)
	started := time.Now()
	audio, err := s.deps.Speech.Synthesize(sctx, res.SSML)
	stage.End(sctx, err)
	if err != nil {
		return nil, err
	}

	stream = &Stream{
		Result:      res,
		ContentType: audio.ContentType,
		Size:        audio.Size,
		provider:    s.deps.Speech.Name(),
		started:     started,
		cancel:      cancel,
		metrics:     s.deps.Metrics,
		ctx:         context.WithoutCancel(ctx),
		log:         s.log.WithContext(ctx),
	}
	if stream.ContentType == "" {
		stream.ContentType = speech.ContentTypeMPEG
	}

	body := audio.Body
	switch {
	case opts.File:
		clip, archiveErr := s.archiveThenOpen(streamCtx, body, res.SSML)
		if archiveErr != nil {
			return nil, archiveErr
		}
		stream.ID, body, stream.Size = clip.ID, clip.Body, clip.Size
	case s.deps.Archive != nil:
		rec := s.deps.Archive.Record(ctx, archive.NewID(), body, res.SSML)
		stream.ID, body = rec.ID(), rec
	}

	stream.body = speech.NewCountingReader(body)
	if s.deps.Metrics != nil {
		s.deps.Metrics.StreamStarted(ctx)
	}
	return stream, nil
}

// archiveThenOpen drains body into the archive and reopens the saved clip.
func (s *Service) archiveThenOpen(ctx context.Context, body io.ReadCloser, markup string) (clip *archive.Clip, err error) {
	id := archive.NewID()
	ctx, stage := observability.StartStage(ctx, s.deps.Metrics, StageArchive, observability.SpanArchive,
		observability.AttrClipID.String(id),
	)
	defer func() { stage.End(ctx, err) }()

	_, err = s.deps.Archive.Save(ctx, id, body, markup)
	closeErr := body.Close()
	if err != nil {
		switch {
		case stderrors.Is(err, archive.ErrTooLarge):
			return nil, errors.Validation("the clip exceeds the archive size limit").WithCause(err)
		case ctx.Err() != nil:
			return nil, errors.Timeout("synthesize").WithCause(err)
		default:
			return nil, errors.SynthesisFailed(err)
		}
	}
	if closeErr != nil {
		s.log.WithContext(ctx).Warn("closing synthesis stream failed", logger.ErrorFields("archive", closeErr))
	}
	return s.deps.Archive.Open(ctx, id)
}
