package progress_test

import (
	"bytes"
	"strings"
	"testing"

	"yodel/internal/progress"
)

type recordingSurface struct {
	shown  []progress.Update
	hidden int
}

func (r *recordingSurface) Show(u progress.Update) {
	r.shown = append(r.shown, u)
}

func (r *recordingSurface) Hide() {
	r.hidden++
}

func TestFormatETA(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{620, "10:20"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{7300, "2:01:40"},
		{172800, "48:00:00"},
		{-5, "0:00"},
	}
	for _, tt := range tests {
		if got := progress.FormatETA(tt.seconds); got != tt.want {
			t.Fatalf("FormatETA(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestReporterStateMachine(t *testing.T) {
	surface := &recordingSurface{}
	r := progress.NewReporter(surface, 0)
	if r.State() != progress.Hidden {
		t.Fatalf("expected hidden, got %s", r.State())
	}

	r.Hide()
	if surface.hidden != 0 {
		t.Fatal("hiding a hidden reporter must not touch the surface")
	}

	r.Status("Song", "Downloading")
	if r.State() != progress.Active {
		t.Fatalf("expected active, got %s", r.State())
	}
	r.Progress("Song", 0.426, 620)
	r.Hide()
	if r.State() != progress.Hidden || surface.hidden != 1 {
		t.Fatalf("expected hidden after Hide, state=%s hides=%d", r.State(), surface.hidden)
	}

	if len(surface.shown) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(surface.shown))
	}
	status := surface.shown[0]
	if !status.Indeterminate || status.Subtext != "Downloading" {
		t.Fatalf("unexpected status update %#v", status)
	}
	prog := surface.shown[1]
	if prog.Indeterminate || prog.Percent != 42 || prog.Subtext != "10:20 remaining" {
		t.Fatalf("unexpected progress update %#v", prog)
	}
}

func TestReporterClampsFraction(t *testing.T) {
	surface := &recordingSurface{}
	r := progress.NewReporter(surface, 0)
	r.Progress("x", 1.7, 0)
	r.Progress("x", -1, 0)
	if surface.shown[0].Percent != 100 || surface.shown[1].Percent != 0 {
		t.Fatalf("unexpected percents %d %d", surface.shown[0].Percent, surface.shown[1].Percent)
	}
}

func TestReporterThrottlesDeterminateUpdates(t *testing.T) {
	surface := &recordingSurface{}
	r := progress.NewReporter(surface, 0.001)
	for i := 0; i < 50; i++ {
		r.Progress("Song", float64(i)/100, 10)
	}
	// first update activates, the bucket admits one more
	if len(surface.shown) > 2 {
		t.Fatalf("expected throttled updates, got %d", len(surface.shown))
	}
	r.Status("Song", "Tagging")
	if last := surface.shown[len(surface.shown)-1]; last.Subtext != "Tagging" {
		t.Fatalf("status updates must bypass throttling, got %#v", last)
	}
}

func TestConsoleSurfacePlainOutput(t *testing.T) {
	var buf bytes.Buffer
	surface := progress.NewWriterSurface(&buf)
	surface.Show(progress.Update{Title: "Song", Subtext: "Fetching", Indeterminate: true})
	surface.Show(progress.Update{Title: "Song", Subtext: "Fetching", Indeterminate: true})
	surface.Show(progress.Update{Title: "Song", Percent: 50, Subtext: "0:10 remaining"})
	surface.Hide()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected duplicate line to be suppressed, got %q", buf.String())
	}
	if !strings.Contains(lines[1], " 50%") || !strings.Contains(lines[1], "0:10 remaining") {
		t.Fatalf("unexpected progress line %q", lines[1])
	}
}
