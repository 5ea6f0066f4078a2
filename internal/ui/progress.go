package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"resync/internal/reporter"
	"resync/internal/transfer"
	"resync/pkg/utils"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// ProgressUI draws a progress bar for file transfers
type ProgressUI struct {
	out       io.Writer
	bar       *progressbar.ProgressBar
	operation string
	start     time.Time
	startedAt int64
	done      int64
}

// NewProgressUI creates a bar-based progress display on out
func NewProgressUI(out io.Writer) *ProgressUI {
	return &ProgressUI{out: out}
}

// NewProgress picks a bar for terminals and plain lines for everything else
func NewProgress(out *os.File) transfer.ProgressReporter {
	if term.IsTerminal(int(out.Fd())) {
		return NewProgressUI(out)
	}
	return reporter.NewLineReporter(out)
}

func (p *ProgressUI) Start(operation, name string, total, done int64) {
	p.operation = operation
	p.start = time.Now()
	p.startedAt = done
	p.done = done
	p.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(fmt.Sprintf("%s %s", operation, name)),
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(false),
	)
	_ = p.bar.Set64(done)
}

func (p *ProgressUI) Update(done int64) {
	if p.bar == nil {
		return
	}
	p.done = done
	_ = p.bar.Set64(done)
}

// Finish completes the bar and prints a short summary
func (p *ProgressUI) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil

	elapsed := time.Since(p.start)
	moved := p.done - p.startedAt
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "=============================================\n")
	fmt.Fprintf(p.out, "+ %s: %s transferred in %s\n", p.operation, utils.FormatFileSize(moved), elapsed.Round(time.Millisecond))
	if secs := elapsed.Seconds(); secs > 0 {
		fmt.Fprintf(p.out, "+ Average throughput: %.2f MB/s\n", float64(moved)/secs/(1024*1024))
	}
	fmt.Fprintf(p.out, "=============================================\n")
}
