package script

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bleitz/meditai/errors"
)

// record is the wire shape of one segment. The model is asked for
// "paragraph" and "pause" but sometimes answers with "text" or "break".
type record struct {
	Paragraph *string `json:"paragraph"`
	Text      *string `json:"text"`
	Pause     *string `json:"pause"`
	Break     *string `json:"break"`
}

func (r record) text() *string {
	if r.Paragraph != nil {
		return r.Paragraph
	}
	return r.Text
}

func (r record) pause() *string {
	if r.Pause != nil {
		return r.Pause
	}
	return r.Break
}

// Parse decodes a JSON array of {"paragraph", "pause"} records and validates
// the result. Missing fields yield InvalidScript; unknown pause tokens yield
// UnsupportedPauseClass.
func Parse(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Document{}, errors.InvalidScript("script is empty")
	}

	var records []record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return Document{}, errors.InvalidScript("script must be a JSON array of paragraphs").WithCause(err)
	}
	return fromRecords(records)
}

func fromRecords(records []record) (Document, error) {
	doc := Document{Segments: make([]Segment, 0, len(records))}
	for i, r := range records {
		text := r.text()
		if text == nil {
			return Document{}, errors.InvalidScript(fmt.Sprintf("segment %d is missing \"paragraph\"", i+1)).
				WithDetail("segment", i+1)
		}
		token := r.pause()
		if token == nil {
			return Document{}, errors.InvalidScript(fmt.Sprintf("segment %d is missing \"pause\"", i+1)).
				WithDetail("segment", i+1)
		}
		pause, err := ParsePauseClass(*token)
		if err != nil {
			return Document{}, err
		}
		doc.Segments = append(doc.Segments, Segment{Text: strings.TrimSpace(*text), Pause: pause})
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Extract finds the script array inside free-form model output, which may
// wrap it in prose or a fenced code block, and parses it. Arrays that decode
// but do not form a valid script are skipped whole.
func Extract(output string) (Document, error) {
	var decodeErr, scriptErr error
	for i := 0; i < len(output); i++ {
		if output[i] != '[' {
			continue
		}
		var records []record
		dec := json.NewDecoder(strings.NewReader(output[i:]))
		if err := dec.Decode(&records); err != nil {
			decodeErr = err
			continue
		}
		doc, err := fromRecords(records)
		if err == nil {
			return doc, nil
		}
		scriptErr = err
		i += int(dec.InputOffset()) - 1
	}
	if scriptErr != nil {
		return Document{}, scriptErr
	}
	if decodeErr != nil {
		return Document{}, errors.InvalidScript("model output contains no valid script array").WithCause(decodeErr)
	}
	return Document{}, errors.InvalidScript("model output contains no script array")
}
