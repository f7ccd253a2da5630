package progress

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
)

// Reporter provides per-file feedback during ingestion.
type Reporter interface {
	Start(total int)
	Update(current int, path string)
	Finish()
}

// NewReporter picks an output style: a live bar on an interactive terminal,
// plain lines when the CI environment variable is set.
func NewReporter(label string) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{label: label}
	}
	return &TerminalReporter{label: label}
}

// TerminalReporter renders a progress bar on stderr, showing the file
// currently being processed.
type TerminalReporter struct {
	label string
	bar   *progressbar.ProgressBar
}

func (r *TerminalReporter) Start(total int) {
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(r.label),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Update(current int, path string) {
	if r.bar == nil {
		return
	}
	r.bar.Describe(fmt.Sprintf("%s %s", r.label, filepath.Base(path)))
	_ = r.bar.Set(current)
}

func (r *TerminalReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// ciStride limits CI log volume to roughly one line per stride of files.
const ciStride = 25

// CIReporter writes plain stderr lines, one per stride plus the final file,
// so CI logs stay readable on large repos.
type CIReporter struct {
	label string
	total int
}

func (r *CIReporter) Start(total int) {
	r.total = total
	fmt.Fprintf(os.Stderr, "%s: %d files\n", r.label, total)
}

func (r *CIReporter) Update(current int, path string) {
	if current%ciStride != 0 && current != r.total {
		return
	}
	fmt.Fprintf(os.Stderr, "%s [%d/%d] %s\n", r.label, current, r.total, path)
}

func (r *CIReporter) Finish() {
	fmt.Fprintf(os.Stderr, "%s: done\n", r.label)
}
