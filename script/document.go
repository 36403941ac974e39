// Package script models the meditation script produced by the language
// model: an ordered list of spoken paragraphs, each followed by a pause class.
package script

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bleitz/meditai/errors"
)

// Segment is one spoken paragraph and the silence that follows it.
type Segment struct {
	Text  string     `json:"paragraph"`
	Pause PauseClass `json:"pause"`
}

// Words counts whitespace-delimited tokens in the segment text.
func (s Segment) Words() int {
	return len(strings.Fields(s.Text))
}

// Document is an ordered script. Order is the spoken order.
type Document struct {
	Segments []Segment
}

// New builds a document from segments. The slice is copied.
func New(segments ...Segment) Document {
	return Document{Segments: append([]Segment(nil), segments...)}
}

// Len returns the number of segments.
func (d Document) Len() int { return len(d.Segments) }

// Words counts whitespace-delimited tokens across all segments.
func (d Document) Words() int {
	total := 0
	for _, s := range d.Segments {
		total += s.Words()
	}
	return total
}

// Counts returns how many segments carry each pause class.
func (d Document) Counts() map[PauseClass]int {
	counts := make(map[PauseClass]int, len(pauseNames))
	for _, s := range d.Segments {
		counts[s.Pause]++
	}
	return counts
}

// Validate checks that the document has at least one segment, that every
// segment has text and that every pause class is known.
func (d Document) Validate() error {
	if len(d.Segments) == 0 {
		return errors.InvalidScript("script has no segments")
	}
	for i, s := range d.Segments {
		if strings.TrimSpace(s.Text) == "" {
			return errors.InvalidScript(fmt.Sprintf("segment %d has no text", i+1)).
				WithDetail("segment", i+1)
		}
		if !s.Pause.Valid() {
			return errors.UnsupportedPauseClass(s.Pause.String()).WithDetail("segment", i+1)
		}
	}
	return nil
}

// EndsWithNone reports whether the last segment carries no pause, which is
// what the generator is asked to produce.
func (d Document) EndsWithNone() bool {
	return len(d.Segments) > 0 && d.Segments[len(d.Segments)-1].Pause == PauseNone
}

// MarshalJSON encodes the document in the generator's array format.
func (d Document) MarshalJSON() ([]byte, error) {
	if d.Segments == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.Segments)
}

// UnmarshalJSON decodes the generator's array format, see Parse.
func (d *Document) UnmarshalJSON(data []byte) error {
	doc, err := Parse(data)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}
