package mspar

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"

	"github.com/viant/afs"
	"github.com/viant/mspar/internal/idgen"
	"github.com/viant/mspar/internal/rand48"
	"github.com/viant/mspar/model"
	"github.com/viant/mspar/progress"
	"github.com/viant/mspar/service/dispatcher"
	"github.com/viant/mspar/service/generator"
	"github.com/viant/mspar/service/generator/ms"
	"github.com/viant/mspar/service/messaging"
	"github.com/viant/mspar/service/messaging/memory"
	"github.com/viant/mspar/service/seed"
	"github.com/viant/mspar/service/sink"
	"github.com/viant/mspar/service/worker"
	"github.com/viant/mspar/tracing"
	"golang.org/x/sync/errgroup"
)

// Version is reported in the trace resource.
const Version = "0.1.0"

// Service runs one configured job on any rank.
type Service struct {
	config    *Config
	generator generator.Generator
	sink      sink.Sink
	logger    *log.Logger
	fs        afs.Service
	runID     string
}

// Report describes what one rank did.
type Report struct {
	RunID        string
	Rank         int
	Participants int
	Summary      *dispatcher.Summary
	Stats        *worker.Stats
	Workers      map[int]*worker.Stats
}

// New validates config and prepares the generator.
func New(config *Config, options ...Option) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := &Service{config: config}
	for _, option := range options {
		option(s)
	}
	if s.generator == nil {
		g, err := ms.New(config.Sample)
		if err != nil {
			return nil, err
		}
		s.generator = g
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.fs == nil {
		s.fs = afs.New()
	}
	if s.runID == "" {
		s.runID = idgen.Short()
	}
	if config.Trace != "" {
		if err := tracing.Init("mspar", Version, config.Trace); err != nil {
			return nil, fmt.Errorf("failed to init tracing: %w", err)
		}
	}
	return s, nil
}

// Config returns the run configuration.
func (s *Service) Config() *Config { return s.config }

// Run plays the role of transport.Rank() for the whole job. The caller owns
// the transport.
func (s *Service) Run(ctx context.Context, transport messaging.Transport) (*Report, error) {
	rank := transport.Rank()
	master, ok := s.config.Seed()
	if !ok {
		master = seed.Default()
	}
	rng, err := seed.Distribute(ctx, transport, master)
	if err != nil {
		return nil, fmt.Errorf("rank %d: %w", rank, err)
	}
	report := &Report{RunID: s.runID, Rank: rank, Participants: s.config.Participants(transport.Size())}

	ctx, span := tracing.StartRankSpan(ctx, "mspar.run", "INTERNAL", rank)
	span.WithAttributes(map[string]string{"mspar.run_id": s.runID})
	defer func() { tracing.EndSpan(span, err) }()

	switch {
	case rank == model.CoordinatorRank:
		report.Summary, err = s.coordinate(ctx, transport, report.Participants, master, rng)
	case rank < report.Participants:
		agent := worker.New(transport, worker.WithGenerator(s.generator), worker.WithRNG(rng), worker.WithLogger(s.logger))
		report.Stats, err = agent.Run(ctx)
	default:
		if s.config.Verbose {
			s.logger.Printf("[%v] rank %d: not needed, finalizing", s.runID, rank)
		}
	}
	if err != nil {
		return report, fmt.Errorf("rank %d: %w", rank, err)
	}
	return report, nil
}

func (s *Service) coordinate(ctx context.Context, transport messaging.Transport, participants int, master rand48.Seed, rng *rand48.Rand) (summary *dispatcher.Summary, err error) {
	snk := s.outputSink()
	defer func() {
		if cErr := snk.Close(ctx); cErr != nil && err == nil {
			err = cErr
		}
	}()
	header := new(bytes.Buffer)
	if g, ok := s.generator.(*ms.Generator); ok {
		if err = ms.Header(header, g.Config(), s.config.Howmany, master); err != nil {
			return nil, err
		}
	}
	if header.Len() > 0 {
		if err = snk.Emit(ctx, header.Bytes()); err != nil {
			return nil, err
		}
	}

	tracker := progress.New(s.runID, s.config.Howmany, nil)
	if s.config.Verbose {
		tracker.OnChange(func(p progress.Counters) {
			s.logger.Printf("[%v] progress: %d/%d confirmed, %d pending, %d batches", p.RunID, p.Completed, p.Total, p.Pending, p.Batches)
		})
	}
	srv := dispatcher.New(transport, s.config.Howmany,
		dispatcher.WithParticipants(participants),
		dispatcher.WithSelfParticipation(s.config.SelfParticipation),
		dispatcher.WithGenerator(s.generator),
		dispatcher.WithRNG(rng),
		dispatcher.WithSink(snk),
		dispatcher.WithProgress(tracker),
		dispatcher.WithLogger(s.logger))
	summary, err = srv.Run(ctx)
	if err != nil {
		return summary, err
	}
	s.logger.Printf("[%v] %d replicates in %d results, %v", s.runID, summary.Replicates, summary.Results, tracker.Elapsed())
	return summary, nil
}

func (s *Service) outputSink() sink.Sink {
	if s.sink != nil {
		return s.sink
	}
	if s.config.Output == "" {
		return sink.NewWriter(os.Stdout)
	}
	return sink.NewURL(s.fs, s.config.Output)
}

// RunPool runs every rank of Config.PoolSize in this process over an
// in-memory group. The first failing rank cancels the others.
func (s *Service) RunPool(ctx context.Context) (*Report, error) {
	group, err := memory.NewGroup(s.config.PoolSize)
	if err != nil {
		return nil, err
	}
	defer group.Close()

	reports := make([]*Report, s.config.PoolSize)
	g, gctx := errgroup.WithContext(ctx)
	for rank := 0; rank < s.config.PoolSize; rank++ {
		endpoint := group.Endpoint(rank)
		g.Go(func() error {
			defer endpoint.Close()
			report, err := s.Run(gctx, endpoint)
			reports[endpoint.Rank()] = report
			return err
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	result := reports[model.CoordinatorRank]
	result.Workers = map[int]*worker.Stats{}
	for rank, report := range reports {
		if rank != model.CoordinatorRank && report != nil && report.Stats != nil {
			result.Workers[rank] = report.Stats
		}
	}
	return result, nil
}
