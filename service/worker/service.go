// Package worker implements the rank > 0 side of the batch protocol: wait
// for a batch size, generate that many replicates into one buffer, report it
// and wait to hear whether more work follows.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/viant/mspar/internal/rand48"
	"github.com/viant/mspar/model"
	"github.com/viant/mspar/service/generator"
	"github.com/viant/mspar/service/messaging"
	"github.com/viant/mspar/tracing"
)

// ErrInvalidBatchSize is returned when an assignment carries a size below 1.
var ErrInvalidBatchSize = errors.New("worker: invalid batch size")

// Stats summarises a worker's contribution.
type Stats struct {
	Batches    int
	Replicates int
}

// Option customises a Service.
type Option func(s *Service)

// WithGenerator sets the replicate generator.
func WithGenerator(g generator.Generator) Option {
	return func(s *Service) { s.generator = g }
}

// WithRNG sets the worker's private random stream.
func WithRNG(rng *rand48.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Service is a worker agent bound to one transport endpoint.
type Service struct {
	transport messaging.Transport
	generator generator.Generator
	rng       *rand48.Rand
	logger    *log.Logger
}

// New creates a worker agent.
func New(transport messaging.Transport, opts ...Option) *Service {
	s := &Service{transport: transport}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return s
}

// Run serves assignments until the coordinator sends a terminal continuation.
func (s *Service) Run(ctx context.Context) (*Stats, error) {
	if s.generator == nil || s.rng == nil {
		return nil, fmt.Errorf("failed to start worker %d: generator and rng are required", s.transport.Rank())
	}
	stats := &Stats{}
	for {
		size, err := s.awaitAssignment(ctx)
		if err != nil {
			return stats, err
		}
		if err = s.process(ctx, size); err != nil {
			return stats, err
		}
		stats.Batches++
		stats.Replicates += size

		proceed, err := s.awaitContinuation(ctx)
		if err != nil {
			return stats, err
		}
		if !proceed {
			s.logger.Printf("worker %d: terminated after %d batches", s.transport.Rank(), stats.Batches)
			return stats, nil
		}
	}
}

func (s *Service) awaitAssignment(ctx context.Context) (int, error) {
	msg, err := s.transport.Recv(ctx, model.CoordinatorRank, model.AssignmentTag)
	if err != nil {
		return 0, fmt.Errorf("failed to receive assignment: %w", err)
	}
	size, err := model.DecodeInt(msg.Payload)
	if err != nil {
		return 0, fmt.Errorf("failed to decode assignment: %w", err)
	}
	if size <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBatchSize, size)
	}
	return size, nil
}

func (s *Service) process(ctx context.Context, size int) (err error) {
	ctx, span := tracing.StartRankSpan(ctx, "worker.batch", "CONSUMER", s.transport.Rank())
	span.WithInt("mspar.batch.size", size)
	defer func() { tracing.EndSpan(span, err) }()
	data, err := generator.Batch(s.generator, s.rng, size)
	if err != nil {
		return err
	}
	if err = s.transport.Send(ctx, model.CoordinatorRank, model.ResultTag, data); err != nil {
		return fmt.Errorf("failed to report result: %w", err)
	}
	return nil
}

func (s *Service) awaitContinuation(ctx context.Context) (bool, error) {
	msg, err := s.transport.Recv(ctx, model.CoordinatorRank, model.ContinuationTag)
	if err != nil {
		return false, fmt.Errorf("failed to receive continuation: %w", err)
	}
	proceed, err := model.DecodeContinuation(msg.Payload)
	if err != nil {
		return false, fmt.Errorf("failed to decode continuation: %w", err)
	}
	return proceed, nil
}
