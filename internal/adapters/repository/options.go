package repository

// Option applies a configuration option to the StandingsStore.
type Option func(*StandingsStore)

// WithMaxLimit caps how many entries one Standings call returns.
func WithMaxLimit(limit int) Option {
	return func(s *StandingsStore) {
		if limit > 0 {
			s.maxLimit = limit
		}
	}
}
