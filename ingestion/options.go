package ingestion

import (
	"io"
	"log/slog"
)

type settings struct {
	workers   int
	rateLimit float64
	dimension int
	progress  io.Writer
	logger    *slog.Logger
}

func defaultSettings() settings {
	return settings{
		workers: 1,
		logger:  slog.Default().With("component", "ingestion"),
	}
}

func applyOptions(opts []Option) (settings, error) {
	s := defaultSettings()
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return s, err
		}
	}
	return s, nil
}

// Option configures an Embedder or an Ingester.
type Option func(*settings) error

// WithWorkers sets the worker pool size. The default is 1.
func WithWorkers(n int) Option {
	return func(s *settings) error {
		if n < 1 {
			return ErrInvalidWorkers
		}
		s.workers = n
		return nil
	}
}

// WithRateLimit caps embedding requests per second. Zero means unlimited.
// Ingesters ignore it.
func WithRateLimit(perSecond float64) Option {
	return func(s *settings) error {
		if perSecond < 0 {
			return ErrInvalidRateLimit
		}
		s.rateLimit = perSecond
		return nil
	}
}

// WithDimension requires every vector to have exactly n components.
// Zero, the default, accepts any length.
func WithDimension(n int) Option {
	return func(s *settings) error {
		if n < 0 {
			return ErrInvalidDimension
		}
		s.dimension = n
		return nil
	}
}

// WithProgress reports progress to w, typically os.Stderr.
func WithProgress(w io.Writer) Option {
	return func(s *settings) error {
		s.progress = w
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}
