package dedupe

type settings struct {
	maxSize int
}

// Option applies a configuration option to the in-memory deduper.
type Option func(*settings)

// WithMaxSize sets the maximum number of committed ids kept in memory.
// maxSize > 0 evicts the oldest id first; maxSize <= 0 never evicts.
func WithMaxSize(maxSize int) Option {
	return func(s *settings) {
		s.maxSize = maxSize
	}
}
