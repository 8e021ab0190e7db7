package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/viant/mspar/internal/rand48"
	"github.com/viant/mspar/model"
	"github.com/viant/mspar/progress"
	"github.com/viant/mspar/service/activity"
	"github.com/viant/mspar/service/batch"
	"github.com/viant/mspar/service/generator"
	"github.com/viant/mspar/service/messaging"
	"github.com/viant/mspar/service/sink"
	"github.com/viant/mspar/tracing"
)

var (
	// ErrUnexpectedResult is returned when a rank reports without an outstanding batch.
	ErrUnexpectedResult = errors.New("dispatcher: result from a rank without outstanding batch")
	// ErrNoParticipants is returned when no rank is eligible for work.
	ErrNoParticipants = errors.New("dispatcher: no eligible rank")
)

// Phase is the dispatcher state.
type Phase int

const (
	Assigning Phase = iota
	Draining
	Done
)

func (p Phase) String() string {
	switch p {
	case Assigning:
		return "assigning"
	case Draining:
		return "draining"
	default:
		return "done"
	}
}

// Summary describes a finished run.
type Summary struct {
	BatchSize   int
	Assignments []model.Assignment
	Results     int
	Replicates  int
	// Proceed and Terminated count continuation signals per rank.
	Proceed    map[int]int
	Terminated map[int]int
}

// Service dispatches howmany replicates over a transport group.
type Service struct {
	transport          messaging.Transport
	howmany            int
	participants       int
	includeCoordinator bool
	generator          generator.Generator
	rng                *rand48.Rand
	sink               sink.Sink
	progress           *progress.Progress
	logger             *log.Logger
}

// run holds the mutable state of one Run call.
type run struct {
	phase        Phase
	remaining    int
	pending      int
	lastAssigned int
	tracker      *activity.Tracker
	outstanding  []int
	awaiting     map[int]bool
	summary      *Summary
}

// New creates a dispatcher for transport, which must be rank 0.
func New(transport messaging.Transport, howmany int, opts ...Option) *Service {
	s := &Service{transport: transport, howmany: howmany}
	for _, opt := range opts {
		opt(s)
	}
	if s.participants <= 0 || s.participants > transport.Size() {
		s.participants = transport.Size()
	}
	if s.participants == 1 {
		s.includeCoordinator = true
	}
	if s.logger == nil {
		s.logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	if s.sink == nil {
		s.sink = sink.NewWriter(os.Stdout)
	}
	return s
}

// Run executes the protocol until every replicate is confirmed.
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{Proceed: map[int]int{}, Terminated: map[int]int{}}
	if s.howmany <= 0 {
		return summary, nil
	}
	if s.includeCoordinator && (s.generator == nil || s.rng == nil) {
		return nil, fmt.Errorf("failed to start dispatcher: self-participation requires generator and rng")
	}
	tracker := activity.New(s.participants, s.includeCoordinator)
	eligible := 0
	for rank := 0; rank < tracker.Size(); rank++ {
		if tracker.Eligible(rank) {
			eligible++
		}
	}
	if eligible == 0 {
		return nil, ErrNoParticipants
	}
	r := &run{
		phase:        Assigning,
		remaining:    s.howmany,
		pending:      s.howmany,
		lastAssigned: s.participants - 1,
		tracker:      tracker,
		outstanding:  make([]int, s.participants),
		awaiting:     map[int]bool{},
		summary:      summary,
	}
	summary.BatchSize = batch.Size(s.howmany, eligible)
	s.logger.Printf("dispatcher: %d replicates over %d ranks, batch size %d", s.howmany, eligible, summary.BatchSize)

	for r.phase != Done {
		var err error
		switch r.phase {
		case Assigning:
			err = s.assign(ctx, r)
		case Draining:
			err = s.drain(ctx, r)
		}
		if err != nil {
			return summary, err
		}
	}
	s.logger.Printf("dispatcher: done, %d batches, %d results", len(summary.Assignments), summary.Results)
	return summary, nil
}

func (s *Service) assign(ctx context.Context, r *run) error {
	if r.remaining == 0 {
		if err := s.releaseAwaiting(ctx, r); err != nil {
			return err
		}
		r.phase = Draining
		if r.pending == 0 {
			r.phase = Done
		}
		return nil
	}
	if err := s.collectReady(ctx, r); err != nil {
		return err
	}
	rank, ok := r.tracker.FindIdle(r.lastAssigned)
	if !ok {
		src, err := s.collect(ctx, r)
		if err != nil {
			return err
		}
		r.awaiting[src] = true
		return nil
	}
	size := batch.Clamp(r.summary.BatchSize, r.remaining)
	r.summary.Assignments = append(r.summary.Assignments, model.Assignment{Rank: rank, Size: size})
	r.lastAssigned = rank
	r.remaining -= size
	if err := r.tracker.MarkBusy(rank); err != nil {
		return err
	}
	r.outstanding[rank] = size
	s.progress.Update(progress.Delta{Assigned: size, Batches: 1})
	if rank == model.CoordinatorRank {
		return s.runInline(ctx, r, size)
	}

	ctx, span := tracing.StartRankSpan(ctx, "dispatch.assign", "PRODUCER", rank)
	span.WithInt("mspar.batch.size", size)
	err := s.sendAssignment(ctx, r, rank, size)
	tracing.EndSpan(span, err)
	return err
}

func (s *Service) sendAssignment(ctx context.Context, r *run, rank, size int) error {
	if r.awaiting[rank] {
		delete(r.awaiting, rank)
		if err := s.signal(ctx, r, rank, true); err != nil {
			return err
		}
	}
	if err := s.transport.Send(ctx, rank, model.AssignmentTag, model.EncodeInt(size)); err != nil {
		return fmt.Errorf("failed to assign %d replicates to rank %d: %w", size, rank, err)
	}
	return nil
}

func (s *Service) runInline(ctx context.Context, r *run, size int) (err error) {
	ctx, span := tracing.StartRankSpan(ctx, "dispatch.inline", "INTERNAL", model.CoordinatorRank)
	span.WithInt("mspar.batch.size", size)
	defer func() { tracing.EndSpan(span, err) }()
	data, err := generator.Batch(s.generator, s.rng, size)
	if err != nil {
		return err
	}
	return s.confirm(ctx, r, &model.Result{Rank: model.CoordinatorRank, Size: size, Payload: data})
}

// collectReady confirms results that have already arrived so that their
// ranks compete for the next assignment.
func (s *Service) collectReady(ctx context.Context, r *run) error {
	for {
		if _, ok := s.transport.Ready(model.ResultTag); !ok {
			return nil
		}
		src, err := s.collect(ctx, r)
		if err != nil {
			return err
		}
		r.awaiting[src] = true
	}
}

// collect blocks until any rank reports a result and confirms it.
func (s *Service) collect(ctx context.Context, r *run) (int, error) {
	src, err := s.transport.ProbeAny(ctx, model.ResultTag)
	if err != nil {
		return 0, fmt.Errorf("failed to wait for results: %w", err)
	}
	msg, err := s.transport.Recv(ctx, src, model.ResultTag)
	if err != nil {
		return 0, fmt.Errorf("failed to receive result from rank %d: %w", src, err)
	}
	if src < 0 || src >= r.tracker.Size() {
		return 0, fmt.Errorf("%w: rank %d", ErrUnexpectedResult, src)
	}
	result := &model.Result{Rank: src, Size: r.outstanding[src], Payload: msg.Payload}
	if err = s.confirm(ctx, r, result); err != nil {
		return 0, err
	}
	return src, nil
}

func (s *Service) confirm(ctx context.Context, r *run, result *model.Result) error {
	rank := result.Rank
	if r.tracker.State(rank) != activity.Busy {
		return fmt.Errorf("%w: rank %d", ErrUnexpectedResult, rank)
	}
	if err := r.tracker.MarkIdle(rank); err != nil {
		return err
	}
	r.outstanding[rank] = 0
	r.pending -= result.Size
	r.summary.Results++
	r.summary.Replicates += result.Size
	s.progress.Update(progress.Delta{Completed: result.Size, Pending: -result.Size})
	if err := s.sink.Emit(ctx, result.Payload); err != nil {
		return fmt.Errorf("failed to emit result of rank %d: %w", rank, err)
	}
	return nil
}

func (s *Service) drain(ctx context.Context, r *run) error {
	if r.pending == 0 {
		r.phase = Done
		return nil
	}
	src, err := s.collect(ctx, r)
	if err != nil {
		return err
	}
	return s.signal(ctx, r, src, false)
}

// releaseAwaiting terminates every worker still waiting for a continuation.
func (s *Service) releaseAwaiting(ctx context.Context, r *run) error {
	ranks := make([]int, 0, len(r.awaiting))
	for rank := range r.awaiting {
		ranks = append(ranks, rank)
	}
	sort.Ints(ranks)
	for _, rank := range ranks {
		delete(r.awaiting, rank)
		if err := s.signal(ctx, r, rank, false); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) signal(ctx context.Context, r *run, rank int, proceed bool) error {
	if rank == model.CoordinatorRank {
		return nil
	}
	if err := s.transport.Send(ctx, rank, model.ContinuationTag, model.EncodeContinuation(proceed)); err != nil {
		return fmt.Errorf("failed to signal rank %d: %w", rank, err)
	}
	if proceed {
		r.summary.Proceed[rank]++
	} else {
		r.summary.Terminated[rank]++
	}
	return nil
}
