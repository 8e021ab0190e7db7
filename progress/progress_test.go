package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/mspar/internal/clock"
)

func TestProgress_Update(t *testing.T) {
	var changes []Counters
	p := New("run-1", 10, func(c Counters) { changes = append(changes, c) })
	p.Update(Delta{Assigned: 5, Batches: 1})
	p.Update(Delta{Completed: 5, Pending: -5})
	p.Update(Delta{Assigned: 5, Batches: 1})
	assert.False(t, p.Done())
	p.Update(Delta{Completed: 5, Pending: -5})

	snapshot := p.Snapshot()
	assert.Equal(t, "run-1", snapshot.RunID)
	assert.Equal(t, 10, snapshot.Assigned)
	assert.Equal(t, 10, snapshot.Completed)
	assert.Equal(t, 0, snapshot.Pending)
	assert.Equal(t, 2, snapshot.Batches)
	assert.True(t, p.Done())
	assert.Len(t, changes, 4)
	assert.Equal(t, 5, changes[1].Pending)
	assert.False(t, changes[1].Done())
}

func TestProgress_Concurrent(t *testing.T) {
	p := New("run-2", 100, nil)
	var mu sync.Mutex
	calls := 0
	p.OnChange(func(Counters) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Update(Delta{Completed: 1, Pending: -1})
		}()
	}
	wg.Wait()
	assert.True(t, p.Done())
	assert.Equal(t, 100, calls)
}

func TestProgress_Nil(t *testing.T) {
	var p *Progress
	p.Update(Delta{Completed: 1})
	p.OnChange(nil)
	assert.Equal(t, Counters{}, p.Snapshot())
	assert.Equal(t, time.Duration(0), p.Elapsed())
}

func TestProgress_Elapsed(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock.NowFunc = func() time.Time { return start }
	defer func() { clock.NowFunc = time.Now }()
	p := New("run-4", 1, nil)
	clock.NowFunc = func() time.Time { return start.Add(3 * time.Second) }
	assert.Equal(t, 3*time.Second, p.Elapsed())
}
