package progress

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/time/rate"
)

// State is the visibility of the notification.
type State int

const (
	Hidden State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "hidden"
}

// Update is one rendering of the notification.
type Update struct {
	Title         string
	Subtext       string
	Percent       int
	Indeterminate bool
}

// Surface renders updates on a single fixed channel.
type Surface interface {
	Show(Update)
	Hide()
}

// Reporter tracks notification state and throttles determinate updates.
type Reporter struct {
	mu      sync.Mutex
	surface Surface
	limiter *rate.Limiter
	state   State
}

// NewReporter returns a hidden reporter. updatesPerSecond <= 0 disables
// throttling of determinate updates.
func NewReporter(surface Surface, updatesPerSecond float64) *Reporter {
	r := &Reporter{surface: surface}
	if updatesPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(updatesPerSecond), 1)
	}
	return r
}

// Status shows the title with a short stage label and indeterminate progress.
func (r *Reporter) Status(title, label string) {
	r.show(Update{Title: title, Subtext: label, Indeterminate: true}, false)
}

// Progress shows the title with a formatted ETA and determinate progress
// derived from fraction (0..1).
func (r *Reporter) Progress(title string, fraction float64, etaSeconds int) {
	if math.IsNaN(fraction) {
		fraction = 0
	}
	fraction = math.Max(0, math.Min(1, fraction))
	update := Update{
		Title:   title,
		Percent: int(math.Floor(fraction * 100)),
	}
	if etaSeconds >= 0 {
		update.Subtext = fmt.Sprintf("%s remaining", FormatETA(etaSeconds))
	}
	r.show(update, true)
}

func (r *Reporter) show(update Update, throttled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.surface == nil {
		return
	}
	if throttled && r.state == Active && r.limiter != nil && !r.limiter.Allow() {
		return
	}
	r.state = Active
	r.surface.Show(update)
}

// Hide removes the notification if it is showing.
func (r *Reporter) Hide() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Hidden {
		return
	}
	r.state = Hidden
	if r.surface != nil {
		r.surface.Hide()
	}
}

// State returns the current visibility.
func (r *Reporter) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// FormatETA renders seconds as m:ss under one hour and h:mm:ss otherwise.
// The leftmost unit has no leading zero.
func FormatETA(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h == 0 {
		return fmt.Sprintf("%d:%02d", m, s)
	}
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
