package script

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bleitz/meditai/errors"
)

// PauseClass labels the silence that follows a spoken segment.
type PauseClass uint8

const (
	PauseNone PauseClass = iota
	PauseShort
	PauseMedium
	PauseLong
)

var pauseNames = [...]string{
	PauseNone:   "none",
	PauseShort:  "short",
	PauseMedium: "medium",
	PauseLong:   "long",
}

// PauseClasses lists every known class in ascending length.
func PauseClasses() []PauseClass {
	return []PauseClass{PauseNone, PauseShort, PauseMedium, PauseLong}
}

// ParsePauseClass maps a generator token such as "Medium " to its class.
func ParsePauseClass(token string) (PauseClass, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	for i, name := range pauseNames {
		if name == t {
			return PauseClass(i), nil
		}
	}
	return PauseNone, errors.UnsupportedPauseClass(token)
}

// Valid reports whether p is one of the declared classes.
func (p PauseClass) Valid() bool {
	return int(p) < len(pauseNames)
}

func (p PauseClass) String() string {
	if !p.Valid() {
		return fmt.Sprintf("pause(%d)", uint8(p))
	}
	return pauseNames[p]
}

// MarshalJSON encodes the class as its lowercase token.
func (p PauseClass) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, errors.UnsupportedPauseClass(p.String())
	}
	return json.Marshal(pauseNames[p])
}

// UnmarshalJSON accepts any casing of none, short, medium or long.
func (p *PauseClass) UnmarshalJSON(data []byte) error {
	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		return errors.InvalidScript("pause must be a string")
	}
	parsed, err := ParsePauseClass(token)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
