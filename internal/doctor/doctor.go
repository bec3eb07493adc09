// Package doctor runs environment preflight checks for cue generation.
package doctor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// PassMark and FailMark prefix every printed check line.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// Supported Python range for the pocket-tts CLI: [3.10, 3.15).
const (
	minPythonMinor = 10
	maxPythonMinor = 15
)

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// Config holds the probes and paths each check uses. Probes are injected so
// tests never shell out.
type Config struct {
	// Backend is the synthesis backend name shown in the report.
	Backend        string
	BackendVersion VersionFunc
	PythonVersion  VersionFunc
	// SkipPython is set for backends that do not run through Python.
	SkipPython bool
	VoiceFiles []string
	// WritableDirs are created if missing and must accept new files.
	WritableDirs []string
}

// Result collects failure messages across all checks.
type Result struct {
	failures []string
}

func (r *Result) Failed() bool { return len(r.failures) > 0 }

func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure records a failure found outside Run, such as a bad manifest.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

type printer struct {
	w   io.Writer
	res *Result
}

func (p printer) ok(label, detail string) {
	fmt.Fprintf(p.w, "%s %s: %s\n", PassMark, label, detail)
}

func (p printer) bad(label string, err error) {
	p.res.AddFailure(label + ": " + err.Error())
	fmt.Fprintf(p.w, "%s %s: %v\n", FailMark, label, err)
}

// Run executes every configured check, printing one marked line per check to w.
func Run(cfg Config, w io.Writer) Result {
	var res Result
	p := printer{w: w, res: &res}

	backend := cfg.Backend
	if backend == "" {
		backend = "synthesis"
	}
	checkBackend(p, backend+" backend", cfg.BackendVersion)

	switch {
	case cfg.SkipPython || cfg.PythonVersion == nil:
		p.ok("python version", "skipped")
	default:
		checkPython(p, cfg.PythonVersion)
	}

	for _, path := range cfg.VoiceFiles {
		if _, err := os.Stat(path); err != nil {
			p.bad(fmt.Sprintf("voice file %q", path), err)
			continue
		}
		p.ok("voice file", path)
	}

	for _, dir := range cfg.WritableDirs {
		if err := checkWritable(dir); err != nil {
			p.bad(fmt.Sprintf("directory %q", dir), err)
			continue
		}
		p.ok("directory writable", dir)
	}

	return res
}

func checkBackend(p printer, label string, probe VersionFunc) {
	if probe == nil {
		p.bad(label, errors.New("no probe configured"))
		return
	}

	ver, err := probe()
	if err != nil {
		p.bad(label, err)
		return
	}

	p.ok(label, ver)
}

func checkPython(p printer, probe VersionFunc) {
	ver, err := probe()
	if err == nil {
		err = checkPythonVersion(ver)
	}
	if err != nil {
		p.bad("python version", err)
		return
	}

	p.ok("python version", strings.TrimSpace(ver))
}

// checkWritable creates dir if needed and round-trips a probe file in it.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create: %w", err)
	}

	f, err := os.CreateTemp(dir, ".cuegen-doctor-*")
	if err != nil {
		return fmt.Errorf("not writable: %w", err)
	}

	name := f.Name()
	_ = f.Close()

	return os.Remove(name)
}

// checkPythonVersion accepts "3.11.4" or "Python 3.11.4" style output.
func checkPythonVersion(ver string) error {
	major, minor, err := parseMajorMinor(ver)
	if err != nil {
		return err
	}

	if major != 3 || minor < minPythonMinor || minor >= maxPythonMinor {
		return fmt.Errorf("need Python 3.%d to 3.%d, got %d.%d",
			minPythonMinor, maxPythonMinor-1, major, minor)
	}

	return nil
}

func parseMajorMinor(ver string) (int, int, error) {
	fields := strings.Fields(ver)
	if len(fields) > 0 && strings.EqualFold(fields[0], "python") {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("empty version string")
	}

	nums := strings.Split(fields[0], ".")
	if len(nums) < 2 {
		return 0, 0, fmt.Errorf("version %q has no minor part", fields[0])
	}

	var out [2]int
	for i := range out {
		n, err := strconv.Atoi(nums[i])
		if err != nil {
			return 0, 0, fmt.Errorf("version %q: %w", fields[0], err)
		}
		out[i] = n
	}

	return out[0], out[1], nil
}
