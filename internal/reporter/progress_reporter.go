package reporter

import (
	"fmt"
	"io"
)

// LineReporter prints plain "Progress: N% (done/total bytes)" lines, one per
// whole-percent step. It suits logs and pipes where a redrawn bar would not.
type LineReporter struct {
	out         io.Writer
	operation   string
	name        string
	total       int64
	done        int64
	lastPercent int
}

// NewLineReporter creates a reporter writing to out
func NewLineReporter(out io.Writer) *LineReporter {
	return &LineReporter{out: out}
}

func (r *LineReporter) Start(operation, name string, total, done int64) {
	r.operation, r.name, r.total, r.done = operation, name, total, done
	r.lastPercent = -1
	fmt.Fprintf(r.out, "%s %s (%d bytes)\n", operation, name, total)
	r.Update(done)
}

func (r *LineReporter) Update(done int64) {
	r.done = done
	percent := r.percent()
	if percent == r.lastPercent {
		return
	}
	r.lastPercent = percent
	fmt.Fprintf(r.out, "Progress: %d%% (%d/%d bytes)\n", percent, done, r.total)
}

func (r *LineReporter) Finish() {
	if r.done >= r.total {
		fmt.Fprintf(r.out, "%s of %s complete\n", r.operation, r.name)
		return
	}
	fmt.Fprintf(r.out, "%s of %s stopped at %d/%d bytes\n", r.operation, r.name, r.done, r.total)
}

func (r *LineReporter) percent() int {
	if r.total <= 0 {
		return 100
	}
	return int(r.done * 100 / r.total)
}
