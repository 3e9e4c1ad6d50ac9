package progress

// logSampler thins out progress for log output. It lets an update through
// when its key changes or when the percentage enters a new bucket.
type logSampler struct {
	bucket  int
	lastKey string
	lastBin int
}

func newLogSampler(bucket int) *logSampler {
	if bucket <= 0 {
		bucket = 5
	}
	return &logSampler{bucket: bucket, lastBin: -1}
}

// allow reports whether the update keyed by key at percent should be logged.
// A negative percent means indeterminate and only key changes pass.
func (s *logSampler) allow(key string, percent int) bool {
	pass := false
	if key != s.lastKey {
		s.lastKey = key
		s.lastBin = -1
		pass = true
	}
	if percent >= 0 {
		bin := min(percent, 100) / s.bucket
		if bin > s.lastBin {
			s.lastBin = bin
			pass = true
		}
	}
	return pass
}

func (s *logSampler) reset() {
	s.lastKey = ""
	s.lastBin = -1
}
