package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smallbiznis/gridpulse/internal/broadcast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestorProcessesConcurrentMessages(t *testing.T) {
	records := &memRecords{}
	var processed atomic.Int64
	ing := NewIngestor(
		newTestPipeline(records, &memAlerts{}, broadcast.NewHub()),
		WithWorkers(4),
		WithQueueSize(8),
		WithOutcomeHook(func(Outcome) { processed.Add(1) }),
	)
	ing.Start()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			home := fmt.Sprintf("H%03d", i%10+1)
			err := ing.Submit(context.Background(), message("home/"+home+"/consumption", fmt.Sprintf("%d.50", 300+i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	require.NoError(t, ing.Stop(context.Background()))
	assert.Equal(t, int64(100), processed.Load())
	assert.Equal(t, 100, records.Len())

	perHome := map[string]int{}
	for _, r := range records.records {
		perHome[r.HomeID]++
	}
	assert.Len(t, perHome, 10)
	for home, n := range perHome {
		assert.Equal(t, 10, n, home)
	}
}

func TestIngestorSubmitAfterStop(t *testing.T) {
	ing := NewIngestor(newTestPipeline(&memRecords{}, &memAlerts{}, broadcast.NewHub()))
	ing.Start()
	require.NoError(t, ing.Stop(context.Background()))

	err := ing.Submit(context.Background(), message("home/H001/consumption", "100"))
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.ErrorIs(t, ing.TrySubmit(context.Background(), message("home/H001/consumption", "100")), ErrQueueClosed)
	assert.NoError(t, ing.Stop(context.Background()))
}

func TestIngestorSubmitBlocksWhenFull(t *testing.T) {
	// Not started, so nothing drains the queue.
	ing := NewIngestor(newTestPipeline(&memRecords{}, &memAlerts{}, broadcast.NewHub()), WithQueueSize(1))
	require.NoError(t, ing.Submit(context.Background(), message("home/H001/consumption", "100")))
	assert.ErrorIs(t, ing.TrySubmit(context.Background(), message("home/H001/consumption", "100")), ErrQueueFull)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := ing.Submit(ctx, message("home/H001/consumption", "100"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, ing.Depth())

	require.NoError(t, ing.Stop(context.Background()))
}

func TestIngestorStopDrainsQueue(t *testing.T) {
	records := &memRecords{}
	ing := NewIngestor(newTestPipeline(records, &memAlerts{}, broadcast.NewHub()), WithWorkers(1), WithQueueSize(32))
	for i := 0; i < 20; i++ {
		require.NoError(t, ing.Submit(context.Background(), message("home/H001/consumption", "100")))
	}
	ing.Start()
	require.NoError(t, ing.Stop(context.Background()))
	assert.Equal(t, 20, records.Len())
}

func TestIngestorSurvivesPanickingStage(t *testing.T) {
	var processed atomic.Int64
	ing := NewIngestor(
		newTestPipeline(panicRecords{}, &memAlerts{}, broadcast.NewHub()),
		WithWorkers(1),
		WithOutcomeHook(func(Outcome) { processed.Add(1) }),
	)
	ing.Start()
	require.NoError(t, ing.Submit(context.Background(), message("home/H001/consumption", "100")))
	require.NoError(t, ing.Submit(context.Background(), message("home/H001/consumption", "abc")))
	require.NoError(t, ing.Stop(context.Background()))

	// The rejected message never reaches the store and completes normally.
	assert.Equal(t, int64(1), processed.Load())
}
