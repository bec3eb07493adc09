package config

import (
	"fmt"
	"strings"
)

const (
	BackendEngine  = "engine"
	BackendCommand = "command"
)

func NormalizeBackend(raw string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(raw))
	if backend == "" {
		backend = BackendEngine
	}
	switch backend {
	case BackendEngine, BackendCommand:
		return backend, nil
	case "pocket-tts", "pockettts":
		return BackendEngine, nil
	case "say", "cli":
		return BackendCommand, nil
	default:
		return "", fmt.Errorf(
			"invalid backend %q (expected %s|%s)",
			raw,
			BackendEngine,
			BackendCommand,
		)
	}
}
