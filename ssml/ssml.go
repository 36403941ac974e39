// Package ssml builds the speech markup handed to the synthesis engine:
// one voice block holding paragraphs and fixed-length breaks.
package ssml

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"
)

const (
	NamespaceSynthesis = "http://www.w3.org/2001/10/synthesis"
	NamespaceMSTTS     = "http://www.w3.org/2001/mstts"
)

// Voice describes the single voice block of a document.
type Voice struct {
	Name  string `yaml:"name" mapstructure:"name"`
	Style string `yaml:"style" mapstructure:"style"`
	Lang  string `yaml:"lang" mapstructure:"lang"`
	// Rate is the prosody rate, e.g. "0.94" or "-6%".
	Rate string `yaml:"rate" mapstructure:"rate"`
	// SentenceBoundarySilence is applied to every sentence in the block.
	SentenceBoundarySilence time.Duration `yaml:"sentence_boundary_silence" mapstructure:"sentence_boundary_silence"`
}

// DefaultVoice is the calm whispering voice used for meditations.
func DefaultVoice() Voice {
	return Voice{
		Name:                    "en-US-JennyNeural",
		Style:                   "whispering",
		Lang:                    "en-US",
		Rate:                    "0.94",
		SentenceBoundarySilence: 5 * time.Second,
	}
}

// ApplyDefaults fills empty fields from DefaultVoice.
func (v *Voice) ApplyDefaults() {
	d := DefaultVoice()
	if v.Name == "" {
		v.Name = d.Name
	}
	if v.Lang == "" {
		v.Lang = d.Lang
	}
	if v.Rate == "" {
		v.Rate = d.Rate
	}
	if v.SentenceBoundarySilence == 0 {
		v.SentenceBoundarySilence = d.SentenceBoundarySilence
	}
}

// ElementKind distinguishes spoken text from silence.
type ElementKind uint8

const (
	KindParagraph ElementKind = iota + 1
	KindBreak
)

// Element is either a paragraph of text or an atomic break.
type Element struct {
	Kind    ElementKind
	Text    string
	Seconds int
}

// Paragraph returns a spoken text element.
func Paragraph(text string) Element {
	return Element{Kind: KindParagraph, Text: text}
}

// Break returns a silence element of the given whole seconds.
func Break(seconds int) Element {
	return Element{Kind: KindBreak, Seconds: seconds}
}

// Document is a complete markup document.
type Document struct {
	Voice    Voice
	Elements []Element
}

// Builder appends elements in spoken order.
type Builder struct {
	doc Document
}

// NewBuilder starts a document for voice.
func NewBuilder(voice Voice) *Builder {
	return &Builder{doc: Document{Voice: voice}}
}

// Paragraph appends spoken text.
func (b *Builder) Paragraph(text string) *Builder {
	b.doc.Elements = append(b.doc.Elements, Paragraph(text))
	return b
}

// Breaks appends n breaks of seconds each.
func (b *Builder) Breaks(n, seconds int) *Builder {
	for i := 0; i < n; i++ {
		b.doc.Elements = append(b.doc.Elements, Break(seconds))
	}
	return b
}

// Document returns the built document.
func (b *Builder) Document() Document {
	return b.doc
}

// Breaks counts break elements.
func (d Document) Breaks() int {
	n := 0
	for _, e := range d.Elements {
		if e.Kind == KindBreak {
			n++
		}
	}
	return n
}

// BreakSeconds sums the duration of all break elements.
func (d Document) BreakSeconds() int {
	total := 0
	for _, e := range d.Elements {
		if e.Kind == KindBreak {
			total += e.Seconds
		}
	}
	return total
}

// Paragraphs returns the spoken texts in order.
func (d Document) Paragraphs() []string {
	var out []string
	for _, e := range d.Elements {
		if e.Kind == KindParagraph {
			out = append(out, e.Text)
		}
	}
	return out
}

// Render serializes the document. Output depends only on the document.
func (d Document) Render() string {
	var sb strings.Builder
	v := d.Voice

	sb.WriteString(`<speak version="1.0" xmlns="`)
	sb.WriteString(NamespaceSynthesis)
	sb.WriteString(`" xmlns:mstts="`)
	sb.WriteString(NamespaceMSTTS)
	sb.WriteString(`" xml:lang="`)
	writeEscaped(&sb, v.Lang)
	sb.WriteString(`">`)

	sb.WriteString(`<voice name="`)
	writeEscaped(&sb, v.Name)
	sb.WriteString(`">`)

	if v.SentenceBoundarySilence > 0 {
		sb.WriteString(`<mstts:silence type="Sentenceboundary" value="`)
		sb.WriteString(strconv.FormatInt(v.SentenceBoundarySilence.Milliseconds(), 10))
		sb.WriteString(`ms"/>`)
	}
	if v.Style != "" {
		sb.WriteString(`<mstts:express-as style="`)
		writeEscaped(&sb, v.Style)
		sb.WriteString(`">`)
	}
	if v.Rate != "" {
		sb.WriteString(`<prosody rate="`)
		writeEscaped(&sb, v.Rate)
		sb.WriteString(`">`)
	}

	for _, e := range d.Elements {
		switch e.Kind {
		case KindParagraph:
			sb.WriteString("<p>")
			writeEscaped(&sb, e.Text)
			sb.WriteString("</p>")
		case KindBreak:
			sb.WriteString(`<break time="`)
			sb.WriteString(strconv.Itoa(e.Seconds))
			sb.WriteString(`s"/>`)
		}
	}

	if v.Rate != "" {
		sb.WriteString("</prosody>")
	}
	if v.Style != "" {
		sb.WriteString("</mstts:express-as>")
	}
	sb.WriteString("</voice></speak>")
	return sb.String()
}

func writeEscaped(sb *strings.Builder, s string) {
	_ = xml.EscapeText(sb, []byte(s))
}
