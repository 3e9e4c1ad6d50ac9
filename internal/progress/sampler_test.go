package progress

import "testing"

func TestLogSamplerBuckets(t *testing.T) {
	s := newLogSampler(10)

	steps := []struct {
		key     string
		percent int
		want    bool
	}{
		{"Song", 0, true},
		{"Song", 3, false},
		{"Song", 10, true},
		{"Song", 19, false},
		{"Song", 100, true},
		{"Song", 100, false},
		{"Other", 100, true},
		{"Other|Writing tags", -1, true},
		{"Other|Writing tags", -1, false},
	}
	for i, step := range steps {
		if got := s.allow(step.key, step.percent); got != step.want {
			t.Fatalf("step %d (%q, %d): got %v want %v", i, step.key, step.percent, got, step.want)
		}
	}

	s.reset()
	if !s.allow("Other", 100) {
		t.Fatal("expected update after reset")
	}
}

func TestLogSamplerDefaultBucket(t *testing.T) {
	if s := newLogSampler(0); s.bucket != 5 {
		t.Fatalf("bucket = %d, want 5", s.bucket)
	}
}
