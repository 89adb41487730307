package renewal

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// Report collects the human-readable lines produced during a run, in
// order. One Report lives for one run, there is no process-wide log
// accumulation.
type Report struct {
	lines []string
}

func NewReport() *Report {
	return &Report{}
}

// Logf appends a formatted line and mirrors it to slog.
func (r *Report) Logf(ctx context.Context, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	r.lines = append(r.lines, line)
	slog.InfoContext(ctx, line)
}

func (r *Report) Lines() []string {
	return slices.Clone(r.lines)
}

func (r *Report) Empty() bool {
	return len(r.lines) == 0
}

// Summary concatenates every line into the notification body.
func (r *Report) Summary() string {
	return strings.Join(r.lines, "\n")
}
