package cue

import "fmt"

// Stage is a position in the per-cue pipeline.
type Stage int

const (
	StagePending Stage = iota
	StageSynthesizing
	StageDecoding
	StagePostProcessing
	StageExporting
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageSynthesizing:
		return "synthesizing"
	case StageDecoding:
		return "decoding"
	case StagePostProcessing:
		return "post-processing"
	case StageExporting:
		return "exporting"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Outcome is the result of one cue. Stage is terminal (StageDone or
// StageFailed); FailedAt names the stage that was running when it failed.
type Outcome struct {
	Key        string
	Success    bool
	DurationMS int64
	Path       string
	Stage      Stage
	FailedAt   Stage
	Err        error
}

// ErrorDetail returns a one-line failure description, or "" on success.
func (o Outcome) ErrorDetail() string {
	if o.Err == nil {
		return ""
	}

	return fmt.Sprintf("%s: %v", o.FailedAt, o.Err)
}

// Report aggregates a batch.
type Report struct {
	RunID     string
	Outcomes  []Outcome
	Succeeded int
	Failed    int
}

// OK reports whether every cue in the batch succeeded.
func (r Report) OK() bool {
	return r.Failed == 0
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Success {
		r.Succeeded++
	} else {
		r.Failed++
	}
}

// ExportError reports a failure to write the finished clip.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
