package synth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Voice is one speaker a backend can use. Manifest voices carry a path to a
// voice embedding; built-in and system voices only have an ID.
type Voice struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	License string `json:"license"`
	Locale  string `json:"-"`
}

// BuiltinVoices are the voices shipped with pocket-tts.
var BuiltinVoices = []string{"alba", "marius", "javert", "jean", "fantine", "cosette", "eponine", "azelma"}

// DefaultPreferredVoices are tried in order when no exact voice is configured.
var DefaultPreferredVoices = []string{"female", "zira", "samantha", "alba"}

// A Rule picks a voice from the available set, or reports that it has no
// opinion.
type Rule func(voices []Voice) (Voice, bool)

// SelectVoice applies rules in order and returns the first match.
func SelectVoice(voices []Voice, rules ...Rule) (Voice, error) {
	for _, rule := range rules {
		if v, ok := rule(voices); ok {
			return v, nil
		}
	}

	return Voice{}, ErrUnknownVoice
}

// Exact matches a voice whose ID equals selector, ignoring case.
func Exact(selector string) Rule {
	selector = strings.TrimSpace(selector)

	return func(voices []Voice) (Voice, bool) {
		if selector == "" {
			return Voice{}, false
		}

		for _, v := range voices {
			if strings.EqualFold(v.ID, selector) {
				return v, true
			}
		}

		return Voice{}, false
	}
}

// Preferred walks hints in priority order and returns the first voice whose
// ID contains the hint.
func Preferred(hints []string) Rule {
	return func(voices []Voice) (Voice, bool) {
		for _, hint := range hints {
			hint = strings.ToLower(strings.TrimSpace(hint))
			if hint == "" {
				continue
			}

			for _, v := range voices {
				if strings.Contains(strings.ToLower(v.ID), hint) {
					return v, true
				}
			}
		}

		return Voice{}, false
	}
}

// First returns the first available voice.
func First() Rule {
	return func(voices []Voice) (Voice, bool) {
		if len(voices) == 0 {
			return Voice{}, false
		}

		return voices[0], true
	}
}

// DefaultRules returns an exact match on selector when one is configured, so
// a misspelt voice fails instead of quietly changing speaker. With no
// selector it is preference hints, then first voice.
func DefaultRules(selector string, hints []string) []Rule {
	if strings.TrimSpace(selector) != "" {
		return []Rule{Exact(selector)}
	}

	if len(hints) == 0 {
		hints = DefaultPreferredVoices
	}

	return []Rule{Exact(selector), Preferred(hints), First()}
}

type voiceManifest struct {
	Voices []Voice `json:"voices"`
}

// VoiceManager holds voices declared in a JSON manifest. Relative voice
// paths resolve against the manifest's directory.
type VoiceManager struct {
	dir    string
	voices []Voice
	index  map[string]int
}

func NewVoiceManager(manifestPath string) (*VoiceManager, error) {
	if manifestPath == "" {
		return nil, errors.New("manifest path is required")
	}

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read voice manifest: %w", err)
	}

	var doc voiceManifest
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode voice manifest %s: %w", manifestPath, err)
	}

	m := &VoiceManager{
		dir:   filepath.Dir(manifestPath),
		index: make(map[string]int, len(doc.Voices)),
	}

	for i, v := range doc.Voices {
		switch _, dup := m.index[v.ID]; {
		case v.ID == "":
			return nil, fmt.Errorf("voice manifest entry %d has no id", i)
		case v.Path == "":
			return nil, fmt.Errorf("voice %q has empty path", v.ID)
		case dup:
			return nil, fmt.Errorf("duplicate voice id %q", v.ID)
		}

		m.index[v.ID] = len(m.voices)
		m.voices = append(m.voices, v)
	}

	return m, nil
}

func (m *VoiceManager) ListVoices() []Voice {
	return append([]Voice(nil), m.voices...)
}

// ResolvePath returns the cleaned embedding path for a manifest voice and
// checks that the file exists.
func (m *VoiceManager) ResolvePath(id string) (string, error) {
	i, ok := m.index[id]
	if !ok {
		return "", fmt.Errorf("unknown voice id %q", id)
	}

	p := m.voices[i].Path
	if !filepath.IsAbs(p) {
		p = filepath.Join(m.dir, p)
	}
	p = filepath.Clean(p)

	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("voice file for %q: %w", id, err)
	}

	return p, nil
}

// EngineVoices lists the pocket-tts built-ins followed by any manifest
// voices. A missing manifest is not an error.
func EngineVoices(manifestPath string) ([]Voice, error) {
	voices := make([]Voice, 0, len(BuiltinVoices))
	for _, id := range BuiltinVoices {
		voices = append(voices, Voice{ID: id})
	}

	if manifestPath == "" {
		return voices, nil
	}

	mgr, err := NewVoiceManager(manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return voices, nil
		}

		return nil, err
	}

	return append(voices, mgr.ListVoices()...), nil
}
