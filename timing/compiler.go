// Package timing turns a meditation script and a target length into timed
// speech markup. Spoken time is estimated from the word count, the remaining
// time is split across pauses in fixed 1:2:4 proportions, and every pause is
// quantized into breaks no longer than the engine allows.
//
// Compilation is pure: no I/O, no clock, no shared state.
package timing

import (
	"fmt"
	"math"

	"github.com/bleitz/meditai/errors"
	"github.com/bleitz/meditai/script"
	"github.com/bleitz/meditai/ssml"
)

// pauseWeights maps each pause class to its share of the silence budget in
// short-pause units.
var pauseWeights = map[script.PauseClass]int{
	script.PauseNone:   0,
	script.PauseShort:  1,
	script.PauseMedium: 2,
	script.PauseLong:   4,
}

// Weight returns the unit weight of a pause class.
func Weight(p script.PauseClass) (int, error) {
	w, ok := pauseWeights[p]
	if !ok {
		return 0, errors.UnsupportedPauseClass(p.String())
	}
	return w, nil
}

// SecondsToAtomicBreaks returns how many maxAtomic-second breaks fit in
// duration. The remainder is dropped.
func SecondsToAtomicBreaks(duration, maxAtomic int) int {
	if duration <= 0 || maxAtomic <= 0 {
		return 0
	}
	return duration / maxAtomic
}

// Compiler compiles scripts with fixed Options. It is safe for concurrent use.
type Compiler struct {
	opts Options
}

// NewCompiler returns a compiler for opts after applying defaults.
func NewCompiler(opts Options) (*Compiler, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Compiler{opts: opts}, nil
}

// Options returns the effective options.
func (c *Compiler) Options() Options { return c.opts }

var defaultCompiler = &Compiler{opts: DefaultOptions()}

// Compile compiles doc with the reference timing and default voice.
func Compile(doc script.Document, targetMinutes float64) (*Result, error) {
	return defaultCompiler.Compile(doc, targetMinutes)
}

// Compile maps (doc, targetMinutes) to markup whose estimated length is close
// to the target. A non-positive or non-finite target uses the default length;
// a target above MaxTargetMinutes is rejected with InvalidInput.
// InvalidScript and UnsupportedPauseClass are returned as errors; a target too
// short for any silence is reported in Result.Warnings.
func (c *Compiler) Compile(doc script.Document, targetMinutes float64) (*Result, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	plan, err := c.Plan(doc, targetMinutes)
	if err != nil {
		return nil, err
	}

	breaks := make(map[script.PauseClass]int, len(plan.Classes))
	for _, cp := range plan.Classes {
		breaks[cp.Pause] = cp.BreaksPerOccurrence
	}

	atomic := c.opts.MaxAtomicPauseSeconds
	leadIn := c.opts.LeadIn()
	b := ssml.NewBuilder(c.opts.Voice)
	b.Breaks(SecondsToAtomicBreaks(leadIn, atomic), atomic)
	if rem := leadIn % atomic; rem > 0 {
		b.Breaks(1, rem)
	}
	for _, seg := range doc.Segments {
		b.Paragraph(seg.Text)
		b.Breaks(breaks[seg.Pause], atomic)
	}

	markup := b.Document()
	res := &Result{
		Markup: markup,
		SSML:   markup.Render(),
		Plan:   plan,
	}
	if plan.Clamped {
		res.Warnings = append(res.Warnings, errors.DurationTooShort(plan.DesiredSeconds, plan.SpokenSeconds))
	}
	return res, nil
}

// Plan computes the timing of doc without building markup.
func (c *Compiler) Plan(doc script.Document, targetMinutes float64) (Plan, error) {
	minutes := targetMinutes
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes <= 0 {
		minutes = c.opts.DefaultMinutes
	}
	if minutes > MaxTargetMinutes {
		return Plan{}, errors.InvalidInput("duration",
			fmt.Sprintf("must be at most %d minutes (got: %g)", MaxTargetMinutes, minutes))
	}

	words := doc.Words()
	spoken := int(math.Round(float64(words) / float64(c.opts.WordsPerMinute) * 60))
	desired := int(math.Round(minutes * 60))

	leadIn := c.opts.LeadIn()
	budget := desired - spoken - leadIn - c.opts.BufferSeconds
	clamped := false
	if budget < 0 {
		budget = 0
		clamped = true
	}

	counts := doc.Counts()
	units := 0
	for p, n := range counts {
		w, err := Weight(p)
		if err != nil {
			return Plan{}, err
		}
		units += w * n
	}

	short := 0
	if units > 0 {
		short = int(math.Round(float64(budget) / float64(units)))
	}
	classes, emitted := c.classPlans(counts, short)
	// Rounding up may overshoot once quantized; step down until it fits.
	for short > 0 && emitted > budget {
		short--
		classes, emitted = c.classPlans(counts, short)
	}

	return Plan{
		TargetMinutes:         minutes,
		Words:                 words,
		SpokenSeconds:         spoken,
		DesiredSeconds:        desired,
		LeadInSeconds:         leadIn,
		BufferSeconds:         c.opts.BufferSeconds,
		SilenceBudget:         budget,
		Clamped:               clamped,
		UnitCount:             units,
		ShortSeconds:          short,
		Classes:               classes,
		EmittedSilenceSeconds: emitted,
	}, nil
}

// classPlans expands a short pause length into per-class plans and the total
// silence the quantized breaks emit.
func (c *Compiler) classPlans(counts map[script.PauseClass]int, short int) ([]ClassPlan, int) {
	atomic := c.opts.MaxAtomicPauseSeconds
	var classes []ClassPlan
	emitted := 0
	for _, p := range script.PauseClasses() {
		w := pauseWeights[p]
		seconds := w * short
		cp := ClassPlan{
			Pause:               p,
			Weight:              w,
			Occurrences:         counts[p],
			Seconds:             seconds,
			BreaksPerOccurrence: SecondsToAtomicBreaks(seconds, atomic),
		}
		classes = append(classes, cp)
		emitted += cp.Occurrences * cp.BreaksPerOccurrence * atomic
	}
	return classes, emitted
}
