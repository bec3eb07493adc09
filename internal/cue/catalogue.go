// Package cue turns a catalogue of short phrases into finished audio cue
// files, one independent pipeline run per phrase.
package cue

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidSpec  = errors.New("invalid cue spec")
	ErrDuplicateKey = errors.New("duplicate cue key")
)

// Spec is one catalogue entry. MaxDuration is in seconds; zero means the clip
// is not capped.
type Spec struct {
	Text        string
	Key         string
	MaxDuration float64
}

// Validate checks the entry on its own. Keys become file names, so they must
// not contain path separators.
func (s Spec) Validate() error {
	switch {
	case strings.TrimSpace(s.Key) == "":
		return fmt.Errorf("%w: empty key", ErrInvalidSpec)
	case strings.ContainsAny(s.Key, `/\`) || s.Key == "." || s.Key == "..":
		return fmt.Errorf("%w: key %q is not a plain file name", ErrInvalidSpec, s.Key)
	case strings.TrimSpace(s.Text) == "":
		return fmt.Errorf("%w: %s has empty text", ErrInvalidSpec, s.Key)
	case s.MaxDuration < 0 || math.IsNaN(s.MaxDuration) || math.IsInf(s.MaxDuration, 0):
		return fmt.Errorf("%w: %s has max duration %v", ErrInvalidSpec, s.Key, s.MaxDuration)
	}

	return nil
}

// DefaultCatalogue returns the timer cues in generation order.
func DefaultCatalogue() []Spec {
	return []Spec{
		{Text: "Round start", Key: "round_start", MaxDuration: 1.0},
		{Text: "Round end", Key: "round_end", MaxDuration: 1.0},
		{Text: "Timer complete", Key: "timer_complete", MaxDuration: 1.5},
		{Text: "Work period", Key: "work_start", MaxDuration: 1.0},
		{Text: "Rest period", Key: "rest_start", MaxDuration: 1.0},
		{Text: "Timer paused", Key: "pause", MaxDuration: 0.8},
		{Text: "Timer resumed", Key: "resume", MaxDuration: 0.8},
		{Text: "Warning", Key: "warning", MaxDuration: 0.8},
		{Text: "Countdown", Key: "countdown", MaxDuration: 0.5},
	}
}

// ProbeSpec is the longer listening test rendered after a batch.
func ProbeSpec() Spec {
	return Spec{
		Text:        "StrikeSense timer audio test. All systems working correctly.",
		Key:         "test_audio",
		MaxDuration: 3.0,
	}
}

// ValidateCatalogue checks every entry and that keys are unique.
func ValidateCatalogue(specs []Spec) error {
	seen := make(map[string]struct{}, len(specs))

	var errs []error
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}

		if _, dup := seen[s.Key]; dup {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateKey, s.Key))
			continue
		}

		seen[s.Key] = struct{}{}
	}

	return errors.Join(errs...)
}
