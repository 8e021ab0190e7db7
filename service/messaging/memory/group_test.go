package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mspar/model"
	"github.com/viant/mspar/service/messaging"
)

func TestGroup_SendRecv(t *testing.T) {
	group, err := NewGroup(3)
	require.NoError(t, err)
	ctx := context.Background()
	a, b := group.Endpoint(0), group.Endpoint(2)

	require.NoError(t, a.Send(ctx, 2, model.AssignmentTag, model.EncodeInt(5)))
	msg, err := b.Recv(ctx, 0, model.AssignmentTag)
	require.NoError(t, err)
	size, err := model.DecodeInt(msg.Payload)
	require.NoError(t, err)
	assert.Equal(t, 5, size)
	assert.Equal(t, 0, msg.Source)

	err = a.Send(ctx, 3, model.AssignmentTag, nil)
	assert.True(t, errors.Is(err, messaging.ErrInvalidRank))
}

func TestGroup_ProbeAnyDoesNotConsume(t *testing.T) {
	group, err := NewGroup(3)
	require.NoError(t, err)
	ctx := context.Background()
	coordinator := group.Endpoint(0)
	require.NoError(t, group.Endpoint(2).Send(ctx, 0, model.ResultTag, []byte("two")))
	require.NoError(t, group.Endpoint(1).Send(ctx, 0, model.ResultTag, []byte("one")))

	src, err := coordinator.ProbeAny(ctx, model.ResultTag)
	require.NoError(t, err)
	assert.Equal(t, 2, src)
	src, err = coordinator.ProbeAny(ctx, model.ResultTag)
	require.NoError(t, err)
	assert.Equal(t, 2, src)

	msg, err := coordinator.Recv(ctx, src, model.ResultTag)
	require.NoError(t, err)
	assert.Equal(t, "two", string(msg.Payload))
	src, err = coordinator.ProbeAny(ctx, model.ResultTag)
	require.NoError(t, err)
	assert.Equal(t, 1, src)
}

func TestGroup_Scatter(t *testing.T) {
	group, err := NewGroup(4)
	require.NoError(t, err)
	ctx := context.Background()
	payloads := [][]byte{[]byte("r0"), []byte("r1"), []byte("r2"), []byte("r3")}

	var wg sync.WaitGroup
	received := make([]string, group.Size())
	for rank := 0; rank < group.Size(); rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			var in [][]byte
			if rank == 0 {
				in = payloads
			}
			data, err := group.Endpoint(rank).Scatter(ctx, 0, in)
			assert.NoError(t, err)
			received[rank] = string(data)
		}(rank)
	}
	wg.Wait()
	assert.Equal(t, []string{"r0", "r1", "r2", "r3"}, received)
}

func TestGroup_CloseReleasesReceivers(t *testing.T) {
	group, err := NewGroup(2)
	require.NoError(t, err)
	worker := group.Endpoint(1)
	errCh := make(chan error, 1)
	go func() {
		_, err := worker.Recv(context.Background(), 0, model.AssignmentTag)
		errCh <- err
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, worker.Close())
	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, messaging.ErrClosed))
	case <-time.After(time.Second):
		t.Fatal("receiver not released")
	}
	err = group.Endpoint(0).Send(context.Background(), 1, model.ContinuationTag, []byte{0})
	assert.True(t, errors.Is(err, messaging.ErrClosed))
	assert.True(t, errors.Is(worker.Send(context.Background(), 0, model.ResultTag, nil), messaging.ErrClosed))
}

func TestNewGroup_InvalidSize(t *testing.T) {
	_, err := NewGroup(0)
	assert.Error(t, err)
}

func TestGroup_Ready(t *testing.T) {
	group, err := NewGroup(3)
	require.NoError(t, err)
	coordinator := group.Endpoint(0)
	_, ok := coordinator.Ready(model.ResultTag)
	assert.False(t, ok)

	require.NoError(t, group.Endpoint(2).Send(context.Background(), 0, model.ResultTag, []byte("done")))
	src, ok := coordinator.Ready(model.ResultTag)
	assert.True(t, ok)
	assert.Equal(t, 2, src)
	assert.Equal(t, 1, coordinator.Pending())
}
