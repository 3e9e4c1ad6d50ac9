package progress

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"yodel/internal/logging"
)

// ConsoleSurface redraws a single status line. On a terminal the line is
// rewritten in place; otherwise each distinct update is printed once.
type ConsoleSurface struct {
	mu       sync.Mutex
	w        io.Writer
	terminal bool
	lastLine string
}

// NewConsoleSurface renders to f, detecting whether f is a terminal.
func NewConsoleSurface(f *os.File) *ConsoleSurface {
	terminal := f != nil && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
	return &ConsoleSurface{w: f, terminal: terminal}
}

// NewWriterSurface renders plain lines to w.
func NewWriterSurface(w io.Writer) *ConsoleSurface {
	return &ConsoleSurface{w: w}
}

// Show renders update.
func (c *ConsoleSurface) Show(update Update) {
	line := renderLine(update)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminal {
		fmt.Fprintf(c.w, "\r\033[K%s", line)
		c.lastLine = line
		return
	}
	if line == c.lastLine {
		return
	}
	c.lastLine = line
	fmt.Fprintln(c.w, line)
}

// Hide clears the line.
func (c *ConsoleSurface) Hide() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminal && c.lastLine != "" {
		fmt.Fprint(c.w, "\r\033[K")
	}
	c.lastLine = ""
}

func renderLine(update Update) string {
	var b strings.Builder
	b.WriteString(update.Title)
	if update.Indeterminate {
		if update.Subtext != "" {
			b.WriteString(" · ")
			b.WriteString(update.Subtext)
		}
		return b.String()
	}
	fmt.Fprintf(&b, " [%s] %3d%%", bar(update.Percent, 20), update.Percent)
	if update.Subtext != "" {
		b.WriteString(" ")
		b.WriteString(update.Subtext)
	}
	return b.String()
}

func bar(percent, width int) string {
	filled := percent * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
}

// LogSurface writes updates as structured log events, sampled so chatty
// download progress only logs on stage changes and 5% buckets.
type LogSurface struct {
	mu      sync.Mutex
	logger  *slog.Logger
	sampler *logSampler
}

// NewLogSurface logs through logger.
func NewLogSurface(logger *slog.Logger) *LogSurface {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogSurface{
		logger:  logging.NewComponentLogger(logger, "progress"),
		sampler: newLogSampler(5),
	}
}

// Show logs update if the sampler lets it through.
func (l *LogSurface) Show(update Update) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key, percent := update.Title, update.Percent
	if update.Indeterminate {
		key, percent = update.Title+"|"+update.Subtext, -1
	}
	if !l.sampler.allow(key, percent) {
		return
	}
	attrs := []logging.Attr{
		logging.String("title", update.Title),
		logging.String(logging.FieldEventType, "download_progress"),
	}
	if update.Subtext != "" {
		attrs = append(attrs, logging.String("detail", update.Subtext))
	}
	if !update.Indeterminate {
		attrs = append(attrs, logging.Int("percent", update.Percent))
	}
	l.logger.Info("download progress", logging.Args(attrs...)...)
}

// Hide resets the sampler and logs that the worker went idle.
func (l *LogSurface) Hide() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sampler.reset()
	l.logger.Debug("progress hidden", logging.String(logging.FieldEventType, "download_idle"))
}

// Tee fans every update out to each surface.
type Tee []Surface

// Show forwards update.
func (t Tee) Show(update Update) {
	for _, s := range t {
		s.Show(update)
	}
}

// Hide forwards the hide.
func (t Tee) Hide() {
	for _, s := range t {
		s.Hide()
	}
}
