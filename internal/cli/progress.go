package cli

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type loadProgressReporter struct {
	enabled bool
	label   string
	start   time.Time
	spinner int
	lastLen int
	count   int
}

func newLoadProgressReporter(label string, asJSON bool) *loadProgressReporter {
	stat, err := os.Stderr.Stat()
	enabled := err == nil && (stat.Mode()&os.ModeCharDevice) != 0 && !asJSON
	return &loadProgressReporter{
		enabled: enabled,
		label:   label,
		start:   time.Now(),
	}
}

// Update matches document.LoadOptions.Progress.
func (r *loadProgressReporter) Update(file string, count int) {
	r.count = count
	if !r.enabled {
		return
	}
	frames := [4]string{"-", "\\", "|", "/"}
	frame := frames[r.spinner%len(frames)]
	r.spinner++
	file = strings.TrimSpace(file)
	if len(file) > 88 {
		file = "..." + file[len(file)-85:]
	}

	r.printStatus(fmt.Sprintf("%s %s %d loading %s", frame, r.label, count, file))
}

func (r *loadProgressReporter) Done() {
	if !r.enabled || r.count == 0 {
		return
	}
	elapsed := time.Since(r.start).Round(time.Millisecond)
	status := fmt.Sprintf("%s complete (%d documents in %s)", r.label, r.count, elapsed)
	r.printStatus(status)
	fmt.Fprintln(os.Stderr)
}

func (r *loadProgressReporter) printStatus(status string) {
	if r.lastLen > len(status) {
		status = status + strings.Repeat(" ", r.lastLen-len(status))
	}
	r.lastLen = len(status)
	fmt.Fprintf(os.Stderr, "\r%s", status)
}
