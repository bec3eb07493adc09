// Package assets downloads the model files shipped next to the generated
// audio cues.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
)

// ProgressInterval is the minimum time between progress lines for one download.
const ProgressInterval = 700 * time.Millisecond

// Status is what happened to one asset during FetchAll.
type Status int

const (
	StatusDownloaded Status = iota
	StatusSkipped
	StatusPlaceholder
	// StatusStale marks a failed re-download that kept the file already on disk.
	StatusStale
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusDownloaded:
		return "downloaded"
	case StatusSkipped:
		return "skipped"
	case StatusPlaceholder:
		return "placeholder"
	case StatusStale:
		return "stale"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

type Result struct {
	Asset  Asset
	Path   string
	Size   int64
	Status Status
	Err    error
}

// Summary aggregates FetchAll.
type Summary struct {
	Dir     string
	Results []Result
}

// Downloaded counts assets that are present with real content.
func (s Summary) Downloaded() int {
	n := 0
	for _, r := range s.Results {
		if r.Status == StatusDownloaded || r.Status == StatusSkipped {
			n++
		}
	}

	return n
}

// OK reports whether every asset has real content.
func (s Summary) OK() bool {
	return s.Downloaded() == len(s.Results)
}

type ErrHTTPStatus struct {
	URL    string
	Status string
}

func (e *ErrHTTPStatus) Error() string {
	return fmt.Sprintf("download %s: %s", e.URL, e.Status)
}

type FetchOptions struct {
	Dir string
	// Timeout bounds each download. Zero means no timeout.
	Timeout time.Duration
	// Force re-downloads assets that already exist.
	Force  bool
	Client *http.Client
	Stdout io.Writer
	Logger *slog.Logger
}

// FetchAll downloads every asset into opts.Dir. Assets that fail keep their
// error in the summary. A failed asset with a file already on disk keeps
// that file (StatusStale); a missing one gets a small placeholder so the
// app can still be built. FetchAll only returns an
// error when the directory cannot be created.
func FetchAll(ctx context.Context, manifest []Asset, opts FetchOptions) (Summary, error) {
	if opts.Dir == "" {
		return Summary{}, errors.New("assets dir is required")
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create assets dir: %w", err)
	}

	summary := Summary{Dir: opts.Dir}

	for _, a := range manifest {
		dest := filepath.Join(opts.Dir, a.Filename)
		logger := opts.Logger.With("asset", a.Name)

		if !opts.Force {
			if fi, err := os.Stat(dest); err == nil && fi.Mode().IsRegular() && fi.Size() > 0 {
				fmt.Fprintf(opts.Stdout, "skip %s (exists, %s)\n", a.Filename, HumanSize(fi.Size()))
				summary.Results = append(summary.Results, Result{Asset: a, Path: dest, Size: fi.Size(), Status: StatusSkipped})

				continue
			}
		}

		fmt.Fprintf(opts.Stdout, "download %s -> %s\n", a.Description, dest)

		n, err := fetchWithTimeout(ctx, opts, a.URL, dest)
		if err != nil {
			logger.Warn("asset download failed", "url", a.URL, "error", err)
			summary.Results = append(summary.Results, Result{Asset: a, Path: dest, Status: StatusFailed, Err: err})

			continue
		}

		logger.Info("asset downloaded", "bytes", n)
		summary.Results = append(summary.Results, Result{Asset: a, Path: dest, Size: n, Status: StatusDownloaded})
	}

	if !summary.OK() {
		writePlaceholders(&summary, opts.Logger)
	}

	return summary, nil
}

func fetchWithTimeout(ctx context.Context, opts FetchOptions, url, dest string) (int64, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	return Fetch(ctx, opts.Client, url, dest, opts.Stdout)
}

// Fetch downloads url to dest through a .tmp sibling and renames it into
// place. Progress lines go to progress at most once per ProgressInterval.
func Fetch(ctx context.Context, client *http.Client, url, dest string, progress io.Writer) (int64, error) {
	if progress == nil {
		progress = io.Discard
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &ErrHTTPStatus{URL: url, Status: resp.Status}
	}

	tmp := dest + ".tmp"
	fh, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	pw := &progressWriter{
		out:   progress,
		total: resp.ContentLength,
		every: &rate.Sometimes{Interval: ProgressInterval},
	}

	written, err := io.Copy(io.MultiWriter(fh, pw), resp.Body)
	if err != nil {
		_ = fh.Close()
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("download read failed: %w", err)
	}

	if err := fh.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("close temp file: %w", err)
	}

	if written == 0 {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("download %s: empty response body", url)
	}

	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("move temp file into place: %w", err)
	}

	pw.report()

	return written, nil
}

type progressWriter struct {
	out     io.Writer
	total   int64
	written int64
	every   *rate.Sometimes
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	p.every.Do(p.report)

	return len(b), nil
}

func (p *progressWriter) report() {
	if p.total > 0 {
		pct := float64(p.written) * 100 / float64(p.total)
		fmt.Fprintf(p.out, "  progress: %.1f%% (%d/%d bytes)\n", pct, p.written, p.total)

		return
	}

	fmt.Fprintf(p.out, "  progress: %d bytes\n", p.written)
}

func placeholderContent(a Asset) []byte {
	return []byte("Placeholder " + a.Name + " model data")
}

func writePlaceholders(summary *Summary, logger *slog.Logger) {
	for i := range summary.Results {
		r := &summary.Results[i]
		if r.Status != StatusFailed {
			continue
		}

		if fi, err := os.Stat(r.Path); err == nil && fi.Mode().IsRegular() && fi.Size() > 0 {
			logger.Warn("keeping existing asset after failed download", "asset", r.Asset.Name, "path", r.Path)
			r.Status = StatusStale
			r.Size = fi.Size()

			continue
		}

		data := placeholderContent(r.Asset)
		if err := os.WriteFile(r.Path, data, 0o644); err != nil {
			logger.Error("write placeholder failed", "asset", r.Asset.Name, "error", err)
			r.Err = errors.Join(r.Err, err)

			continue
		}

		logger.Warn("placeholder written", "asset", r.Asset.Name, "path", r.Path)
		r.Status = StatusPlaceholder
		r.Size = int64(len(data))
	}
}

// HumanSize formats n bytes with one decimal and a binary unit.
func HumanSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}

	return fmt.Sprintf("%.1f TB", size)
}
