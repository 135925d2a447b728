package service

import (
	"log/slog"

	"github.com/mradkov043/discite-omnes-app/internal/logger"
	"github.com/mradkov043/discite-omnes-app/internal/metrics"
	"github.com/mradkov043/discite-omnes-app/internal/retry"
)

type settings struct {
	logger           *slog.Logger
	recorder         metrics.Recorder
	retry            retry.Policy
	atomicMembership bool
	lookupLimit      int
}

// Option настраивает сервисы
type Option func(*settings)

func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(s *settings) {
		if r != nil {
			s.recorder = r
		}
	}
}

func WithRetryPolicy(p retry.Policy) Option {
	return func(s *settings) {
		s.retry = p
	}
}

// WithAtomicMembership переключает вступление/выход на серверные операции над
// множеством, если хранилище их поддерживает
func WithAtomicMembership(enabled bool) Option {
	return func(s *settings) {
		s.atomicMembership = enabled
	}
}

// WithLookupLimit ограничивает число параллельных чтений справочника пользователей
func WithLookupLimit(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.lookupLimit = n
		}
	}
}

func buildSettings(opts []Option) settings {
	s := settings{
		logger:      logger.Discard(),
		recorder:    metrics.NopRecorder{},
		retry:       retry.DefaultPolicy(),
		lookupLimit: 8,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
