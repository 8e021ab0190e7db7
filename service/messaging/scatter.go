package messaging

import (
	"context"
	"fmt"

	"github.com/viant/mspar/model"
)

// Scatter implements the scatter collective on top of point-to-point
// messaging. Transports without a native collective delegate to it.
func Scatter(ctx context.Context, t Transport, root int, payloads [][]byte) ([]byte, error) {
	size := t.Size()
	if root < 0 || root >= size {
		return nil, fmt.Errorf("%w: scatter root %d", ErrInvalidRank, root)
	}
	if t.Rank() != root {
		msg, err := t.Recv(ctx, root, model.SeedTag)
		if err != nil {
			return nil, fmt.Errorf("failed to receive scatter payload: %w", err)
		}
		return msg.Payload, nil
	}
	if len(payloads) != size {
		return nil, fmt.Errorf("scatter expects %d payloads, got %d", size, len(payloads))
	}
	for rank, payload := range payloads {
		if rank == root {
			continue
		}
		if err := t.Send(ctx, rank, model.SeedTag, payload); err != nil {
			return nil, fmt.Errorf("failed to scatter to rank %d: %w", rank, err)
		}
	}
	return payloads[root], nil
}
