package dispatcher

import (
	"log"

	"github.com/viant/mspar/internal/rand48"
	"github.com/viant/mspar/progress"
	"github.com/viant/mspar/service/generator"
	"github.com/viant/mspar/service/sink"
)

// Option customises a Service.
type Option func(s *Service)

// WithSelfParticipation lets rank 0 generate batches inline.
func WithSelfParticipation(enabled bool) Option {
	return func(s *Service) { s.includeCoordinator = enabled }
}

// WithParticipants limits dispatch to ranks [0, n).
func WithParticipants(n int) Option {
	return func(s *Service) { s.participants = n }
}

// WithGenerator sets the generator used for inline batches.
func WithGenerator(g generator.Generator) Option {
	return func(s *Service) { s.generator = g }
}

// WithRNG sets the coordinator's private random stream.
func WithRNG(rng *rand48.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// WithSink sets the destination of completed results.
func WithSink(snk sink.Sink) Option {
	return func(s *Service) { s.sink = snk }
}

// WithProgress sets the counters updated on every assignment and confirmation.
func WithProgress(p *progress.Progress) Option {
	return func(s *Service) { s.progress = p }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}
