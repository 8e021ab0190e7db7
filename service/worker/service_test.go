package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mspar/internal/rand48"
	"github.com/viant/mspar/model"
	"github.com/viant/mspar/service/generator"
	"github.com/viant/mspar/service/messaging/memory"
)

var quiet = log.New(io.Discard, "", 0)

func counting() generator.Generator {
	return generator.Func(func(rng *rand48.Rand, dst *bytes.Buffer) error {
		dst.WriteString("x")
		return nil
	})
}

func TestService_Run(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	group, err := memory.NewGroup(2)
	require.NoError(t, err)
	coordinator := group.Endpoint(0)
	agent := New(group.Endpoint(1), WithGenerator(counting()), WithRNG(rand48.New(rand48.Seed{1, 1, 1})), WithLogger(quiet))

	type outcome struct {
		stats *Stats
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		s, err := agent.Run(ctx)
		done <- outcome{s, err}
	}()

	require.NoError(t, coordinator.Send(ctx, 1, model.AssignmentTag, model.EncodeInt(3)))
	msg, err := coordinator.Recv(ctx, 1, model.ResultTag)
	require.NoError(t, err)
	assert.Equal(t, "xxx", string(msg.Payload))
	require.NoError(t, coordinator.Send(ctx, 1, model.ContinuationTag, model.EncodeContinuation(true)))
	require.NoError(t, coordinator.Send(ctx, 1, model.AssignmentTag, model.EncodeInt(2)))
	msg, err = coordinator.Recv(ctx, 1, model.ResultTag)
	require.NoError(t, err)
	assert.Equal(t, "xx", string(msg.Payload))
	require.NoError(t, coordinator.Send(ctx, 1, model.ContinuationTag, model.EncodeContinuation(false)))

	result := <-done
	require.NoError(t, result.err)
	assert.Equal(t, &Stats{Batches: 2, Replicates: 5}, result.stats)
}

func TestService_InvalidBatchSize(t *testing.T) {
	testCases := []struct {
		name string
		size int
	}{
		{name: "zero", size: 0},
		{name: "negative", size: -4},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			group, err := memory.NewGroup(2)
			require.NoError(t, err)
			require.NoError(t, group.Endpoint(0).Send(ctx, 1, model.AssignmentTag, model.EncodeInt(tc.size)))
			agent := New(group.Endpoint(1), WithGenerator(counting()), WithRNG(rand48.New(rand48.Seed{})), WithLogger(quiet))
			stats, err := agent.Run(ctx)
			assert.True(t, errors.Is(err, ErrInvalidBatchSize), "%v", err)
			assert.Equal(t, 0, stats.Batches)
		})
	}
}

func TestService_GeneratorFailure(t *testing.T) {
	ctx := context.Background()
	group, err := memory.NewGroup(2)
	require.NoError(t, err)
	boom := errors.New("boom")
	require.NoError(t, group.Endpoint(0).Send(ctx, 1, model.AssignmentTag, model.EncodeInt(2)))
	agent := New(group.Endpoint(1), WithGenerator(generator.Func(func(*rand48.Rand, *bytes.Buffer) error { return boom })), WithRNG(rand48.New(rand48.Seed{})), WithLogger(quiet))
	_, err = agent.Run(ctx)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 0, group.Endpoint(0).Pending())
}

func TestService_Misconfigured(t *testing.T) {
	group, err := memory.NewGroup(2)
	require.NoError(t, err)
	_, err = New(group.Endpoint(1), WithLogger(quiet)).Run(context.Background())
	assert.Error(t, err)
}
