package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/bleitz/meditai/errors"
	"github.com/bleitz/meditai/script"
)

// Minutes is a requested clip length. Clients send it as a number or a
// numeric string; null, "" and 0 mean the default length.
type Minutes float64

// UnmarshalJSON accepts 5, 7.5, "10" and null.
func (m *Minutes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*m = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.InvalidInput("duration", "duration must be a number of minutes")
		}
		*m = Minutes(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.InvalidInput("duration", "duration must be a number of minutes")
	}
	*m = Minutes(v)
	return nil
}

// ScriptRequest is the body of POST /api/script.
type ScriptRequest struct {
	Topic    string  `json:"topic" validate:"required"`
	Duration Minutes `json:"duration"`
}

// CompileRequest is the body of POST /api/compile.
type CompileRequest struct {
	// Script is a JSON array of {"paragraph","pause"} records, or a string
	// holding raw model output with the array inside it.
	Script json.RawMessage `json:"script"`
	// ScriptString is raw model output as returned by /api/script clients
	// that forward the text unparsed.
	ScriptString string  `json:"scriptString"`
	Duration     Minutes `json:"duration"`
}

// AudioRequest is the body of POST /api/audio.
type AudioRequest struct {
	CompileRequest
	// File archives the whole clip before streaming it back.
	File bool `json:"file"`
}

// MeditationRequest is the body of POST /api/meditation.
type MeditationRequest struct {
	Topic    string  `json:"topic" validate:"required"`
	Duration Minutes `json:"duration"`
	File     bool    `json:"file"`
}

// Document decodes the request's script.
func (r CompileRequest) Document() (script.Document, error) {
	raw := bytes.TrimSpace(r.Script)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		if strings.TrimSpace(r.ScriptString) == "" {
			return script.Document{}, errors.MissingField("script")
		}
		return script.Extract(r.ScriptString)
	case raw[0] == '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return script.Document{}, errors.InvalidScript("script string is not valid JSON").WithCause(err)
		}
		return script.Extract(text)
	default:
		return script.Parse(raw)
	}
}
