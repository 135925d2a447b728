package projection

import (
	"log/slog"

	"github.com/mradkov043/discite-omnes-app/internal/logger"
	"github.com/mradkov043/discite-omnes-app/internal/metrics"
	"github.com/mradkov043/discite-omnes-app/internal/retry"
)

type options struct {
	logger   *slog.Logger
	recorder metrics.Recorder
	retry    retry.Policy
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithRetryPolicy sets how optimistic writes are retried before they are
// reported as failed.
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *options) {
		o.retry = p
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   logger.Discard(),
		recorder: metrics.NopRecorder{},
		retry:    retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
