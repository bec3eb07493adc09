// Package synth renders short phrases to audio files through interchangeable
// speech backends.
package synth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyText    = errors.New("empty input text")
	ErrNoOutput     = errors.New("backend produced no output file")
	ErrEmptyOutput  = errors.New("backend produced an empty output file")
	ErrMissingDir   = errors.New("destination directory does not exist")
	ErrUnknownVoice = errors.New("no voice available")
)

// Result describes the file a backend wrote for one phrase.
type Result struct {
	Path  string
	Empty bool
}

// Backend renders text to an audio file at dest. Implementations write
// exactly one file per call and never retry.
type Backend interface {
	Synthesize(ctx context.Context, text, dest string) (Result, error)
	Name() string
}

// SynthesisError reports a failed render. It always carries the phrase and
// the backend that was asked to speak it.
type SynthesisError struct {
	Text    string
	Backend string
	Err     error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("%s synthesis of %q failed: %v", e.Backend, e.Text, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// NormalizeText folds line endings and whitespace runs into single spaces.
// Backends speak the normalized form.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// checkRequest validates the inputs shared by all backends and returns the
// text to speak.
func checkRequest(backend, text, dest string) (string, error) {
	spoken := NormalizeText(text)
	if spoken == "" {
		return "", &SynthesisError{Text: text, Backend: backend, Err: ErrEmptyText}
	}

	dir := filepath.Dir(dest)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", &SynthesisError{Text: text, Backend: backend, Err: fmt.Errorf("%w: %s", ErrMissingDir, dir)}
	}

	return spoken, nil
}

// checkOutput confirms the backend left a non-empty file behind.
func checkOutput(backend, text, dest string) (Result, error) {
	info, err := os.Stat(dest)
	if err != nil {
		return Result{}, &SynthesisError{Text: text, Backend: backend, Err: fmt.Errorf("%w: %v", ErrNoOutput, err)}
	}

	if info.Size() == 0 {
		return Result{Path: dest, Empty: true}, &SynthesisError{Text: text, Backend: backend, Err: ErrEmptyOutput}
	}

	return Result{Path: dest}, nil
}
