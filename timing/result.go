package timing

import (
	"github.com/bleitz/meditai/errors"
	"github.com/bleitz/meditai/script"
	"github.com/bleitz/meditai/ssml"
)

// Result is a compiled script.
type Result struct {
	Markup   ssml.Document      `json:"-"`
	SSML     string             `json:"ssml"`
	Plan     Plan               `json:"plan"`
	Warnings []*errors.AppError `json:"warnings,omitempty"`
}

// TooShort reports whether the target could not hold any silence.
func (r *Result) TooShort() bool {
	return r.Plan.Clamped
}

// Plan records every intermediate value of a compilation, in seconds.
type Plan struct {
	TargetMinutes  float64 `json:"target_minutes"`
	Words          int     `json:"words"`
	SpokenSeconds  int     `json:"spoken_seconds"`
	DesiredSeconds int     `json:"desired_seconds"`
	LeadInSeconds  int     `json:"lead_in_seconds"`
	BufferSeconds  int     `json:"buffer_seconds"`
	SilenceBudget  int     `json:"silence_budget_seconds"`
	Clamped        bool    `json:"clamped"`
	UnitCount      int     `json:"unit_count"`
	ShortSeconds   int     `json:"short_seconds"`
	// EmittedSilenceSeconds is the break time after quantization, lead-in excluded.
	EmittedSilenceSeconds int         `json:"emitted_silence_seconds"`
	Classes               []ClassPlan `json:"classes"`
}

// Class returns the plan entry for p.
func (p Plan) Class(pause script.PauseClass) ClassPlan {
	for _, cp := range p.Classes {
		if cp.Pause == pause {
			return cp
		}
	}
	return ClassPlan{Pause: pause}
}

// EstimatedSeconds is the expected clip length: lead-in, speech and emitted silence.
func (p Plan) EstimatedSeconds() int {
	return p.LeadInSeconds + p.SpokenSeconds + p.EmittedSilenceSeconds
}

// ClassPlan is the timing of one pause class.
type ClassPlan struct {
	Pause               script.PauseClass `json:"pause"`
	Weight              int               `json:"weight"`
	Occurrences         int               `json:"occurrences"`
	Seconds             int               `json:"seconds"`
	BreaksPerOccurrence int               `json:"breaks_per_occurrence"`
}
