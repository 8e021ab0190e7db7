package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mspar/model"
)

func TestMailbox_MatchingAndOrder(t *testing.T) {
	box := NewMailbox()
	ctx := context.Background()
	require.NoError(t, box.Deliver(&Message{Source: 2, Tag: model.ResultTag, Payload: []byte("a")}))
	require.NoError(t, box.Deliver(&Message{Source: 1, Tag: model.ResultTag, Payload: []byte("b")}))
	require.NoError(t, box.Deliver(&Message{Source: 2, Tag: model.ResultTag, Payload: []byte("c")}))
	require.NoError(t, box.Deliver(&Message{Source: 1, Tag: model.AssignmentTag, Payload: []byte("d")}))

	msg, err := box.Peek(ctx, AnySource, model.ResultTag)
	require.NoError(t, err)
	assert.Equal(t, 2, msg.Source)
	assert.Equal(t, 4, box.Len())

	msg, err = box.Take(ctx, 1, model.ResultTag)
	require.NoError(t, err)
	assert.Equal(t, "b", string(msg.Payload))

	msg, err = box.Take(ctx, 2, model.ResultTag)
	require.NoError(t, err)
	assert.Equal(t, "a", string(msg.Payload))

	msg, err = box.Take(ctx, AnySource, model.ResultTag)
	require.NoError(t, err)
	assert.Equal(t, "c", string(msg.Payload))
	assert.Equal(t, 1, box.Len())
}

func TestMailbox_BlocksUntilDelivery(t *testing.T) {
	box := NewMailbox()
	done := make(chan *Message, 1)
	go func() {
		msg, err := box.Take(context.Background(), AnySource, model.ContinuationTag)
		if err == nil {
			done <- msg
		}
	}()
	select {
	case <-done:
		t.Fatal("take returned before delivery")
	case <-time.After(20 * time.Millisecond):
	}
	require.NoError(t, box.Deliver(&Message{Source: 0, Tag: model.ContinuationTag, Payload: []byte{1}}))
	select {
	case msg := <-done:
		assert.Equal(t, []byte{1}, msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("take did not wake up")
	}
}

func TestMailbox_CancelAndClose(t *testing.T) {
	box := NewMailbox()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := box.Take(ctx, AnySource, model.ResultTag)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	cause := errors.New("link down")
	box.Close(cause)
	_, err = box.Peek(context.Background(), AnySource, model.ResultTag)
	assert.Equal(t, cause, err)
	assert.Equal(t, cause, box.Deliver(&Message{}))
}

func TestMailbox_Ready(t *testing.T) {
	box := NewMailbox()
	_, ok := box.Ready(AnySource, model.ResultTag)
	assert.False(t, ok)

	require.NoError(t, box.Deliver(&Message{Source: 1, Tag: model.AssignmentTag}))
	_, ok = box.Ready(AnySource, model.ResultTag)
	assert.False(t, ok)

	require.NoError(t, box.Deliver(&Message{Source: 3, Tag: model.ResultTag, Payload: []byte("r")}))
	msg, ok := box.Ready(AnySource, model.ResultTag)
	require.True(t, ok)
	assert.Equal(t, 3, msg.Source)
	_, ok = box.Ready(2, model.ResultTag)
	assert.False(t, ok)
	assert.Equal(t, 2, box.Len())
}
