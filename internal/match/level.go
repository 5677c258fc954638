// Package match defines how strictly a screenshot is compared against its baseline.
package match

import (
	"strings"

	apperrors "github.com/GriffinCanCode/eyes-go/internal/errors"
)

// Level is the strictness policy for pixel comparison.
type Level int

const (
	Layout  Level = iota + 1 // structure only
	Content                  // content, ignoring colour
	Strict                   // what a human would notice
	Exact                    // pixel for pixel
)

var levelNames = map[Level]string{
	Layout:  "Layout",
	Content: "Content",
	Strict:  "Strict",
	Exact:   "Exact",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return "None"
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// MarshalText encodes the level by name, as the comparison service expects.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, apperrors.Newf(apperrors.InvalidArgument, "invalid match level %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name.
func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Parse converts a case-insensitive level name into a Level.
func Parse(s string) (Level, error) {
	for l, name := range levelNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return l, nil
		}
	}
	return 0, apperrors.Newf(apperrors.InvalidArgument, "unknown match level %q", s)
}
