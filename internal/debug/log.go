// Package debug provides an opt-in category logger for parser warnings and
// transport tracing. Disabled by default so library users see no output
// unless they ask for it.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	out     io.Writer
	enabled bool
)

// Enable starts logging to w. Pass nil to log to stderr.
func Enable(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	out = w
	enabled = true
}

// Disable stops all logging.
func Disable() {
	mu.Lock()
	defer mu.Unlock()
	enabled = false
	out = nil
}

// Log writes a timestamped message under a category.
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled || out == nil {
		return
	}
	ts := time.Now().Format("15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(out, "[%s] %-10s %s\n", ts, category, msg)
}
