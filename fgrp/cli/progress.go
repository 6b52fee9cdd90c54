package cli

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v2"
)

// progress draws a per-file progress bar once the file count is known.
// Methods are safe on a nil receiver.
type progress struct {
	w           io.Writer
	description string
	bar         *progressbar.ProgressBar
}

func newProgress(w io.Writer, description string) *progress {
	return &progress{w: w, description: description}
}

// Start creates the bar for total files. It runs before any worker starts.
func (p *progress) Start(total int) {
	if p == nil || total == 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription(p.description),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// Increment advances the bar by one file. Called concurrently by workers.
func (p *progress) Increment(_, _ int) {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Add(1)
}

// Finish fills and clears the bar
func (p *progress) Finish() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
