package seed

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mspar/internal/rand48"
	"github.com/viant/mspar/service/messaging/memory"
)

func TestDraw_Deterministic(t *testing.T) {
	a := Draw(rand48.New(rand48.Seed{1, 2, 3}), 4)
	b := Draw(rand48.New(rand48.Seed{1, 2, 3}), 4)
	assert.Equal(t, a, b)
	assert.Len(t, a, 4)
	assert.NotEqual(t, a[0], a[1])
}

func TestDistribute(t *testing.T) {
	const size = 4
	master := rand48.Seed{9, 8, 7}
	expected := Draw(rand48.New(master), size)

	group, err := memory.NewGroup(size)
	require.NoError(t, err)
	states := make([]rand48.Seed, size)
	var wg sync.WaitGroup
	for rank := 0; rank < size; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			seedFor := master
			if rank != 0 {
				seedFor = rand48.Seed{}
			}
			rng, err := Distribute(context.Background(), group.Endpoint(rank), seedFor)
			assert.NoError(t, err)
			states[rank] = rng.State()
		}(rank)
	}
	wg.Wait()
	assert.Equal(t, expected, states)
}
