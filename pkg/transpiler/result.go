package transpiler

import (
	"context"
	"errors"
	"time"

	"github.com/spicery/jsconvert/pkg/engine"
)

var (
	// ErrNoEdit marks a unit whose source, or existing output, carries the
	// no-edit marker in its leading comments.
	ErrNoEdit = errors.New("no-edit marker present")
	// ErrSameInputOutput is returned when a file would overwrite itself.
	ErrSameInputOutput = errors.New("output path is the input path")
)

type Status string

const (
	StatusOK       Status = "ok"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
	StatusCanceled Status = "canceled"
	// StatusUnchanged is a file whose source matches its last successful
	// conversion.
	StatusUnchanged Status = "unchanged"
)

// Result is the outcome of one unit. Text is empty unless Status is ok.
type Result struct {
	Name        string
	Input       string
	Output      string
	Catalog     string
	Text        string
	Dump        string
	Diagnostics []engine.Diagnostic
	Imports     map[string]string
	Status      Status
	Err         error
	Duration    time.Duration
	InputBytes  int
	OutputBytes int
	SourceHash  string
}

// PassThroughs counts the nodes emitted verbatim.
func (r *Result) PassThroughs() int {
	count := 0
	for _, d := range r.Diagnostics {
		if d.Kind == engine.UnsupportedConstruct {
			count++
		}
	}
	return count
}

func (r *Result) OK() bool {
	return r.Status == StatusOK || r.Status == StatusUnchanged
}

func (r *Result) fail(err error) {
	r.Err = err
	r.Text = ""
	r.OutputBytes = 0
	switch {
	case errors.Is(err, ErrNoEdit):
		r.Status = StatusSkipped
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.Status = StatusCanceled
	default:
		r.Status = StatusFailed
	}
}

// Summary counts results by status.
type Summary struct {
	Total        int
	ByStatus     map[Status]int
	PassThroughs int
	InputBytes   int
	OutputBytes  int
	Duration     time.Duration
}

func Summarize(results []*Result) Summary {
	s := Summary{Total: len(results), ByStatus: map[Status]int{}}
	for _, r := range results {
		if r == nil {
			continue
		}
		s.ByStatus[r.Status]++
		s.PassThroughs += r.PassThroughs()
		s.InputBytes += r.InputBytes
		s.OutputBytes += r.OutputBytes
		s.Duration += r.Duration
	}
	return s
}

// Failed reports how many units did not convert.
func (s Summary) Failed() int {
	return s.ByStatus[StatusFailed] + s.ByStatus[StatusCanceled]
}
