package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var processed int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&processed, 1)
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 8})
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{Type: "warm"}))
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&processed) == 5 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(5), q.Stats().Succeeded)
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{})
	assert.True(t, errors.Is(err, ErrQueueStopped))
}

func TestQueueFullDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	q := NewQueue("slow", func(ctx context.Context, job Job) error {
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer func() {
		close(release)
		q.Stop()
	}()

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	require.Eventually(t, func() bool { return q.Stats().Pending == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(Job{ID: "2"}))

	err := q.Enqueue(Job{ID: "3"})
	assert.True(t, errors.Is(err, ErrQueueFull))
	assert.Equal(t, uint64(1), q.Stats().Dropped)
}

func TestQueueCoalescesPendingKeys(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var seen []string
	q := NewQueue("coalesce", func(ctx context.Context, job Job) error {
		<-release
		mu.Lock()
		seen = append(seen, job.ID)
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "blocker"}))
	require.Eventually(t, func() bool { return q.Stats().Pending == 0 }, time.Second, time.Millisecond)

	require.NoError(t, q.Enqueue(Job{ID: "a", Key: "class-1"}))
	require.NoError(t, q.Enqueue(Job{ID: "b", Key: "class-1"}))
	require.NoError(t, q.Enqueue(Job{ID: "c", Key: "class-2"}))
	close(release)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"blocker", "a", "c"}, seen)
	assert.Equal(t, uint64(1), q.Stats().Coalesced)
}

func TestQueueRetriesThenReportsFailure(t *testing.T) {
	var attempts int32
	done := make(chan error, 1)
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("boom")
	}, QueueConfig{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		OnDone:     func(job Job, err error) { done <- err },
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "r"}))

	select {
	case err := <-done:
		assert.EqualError(t, err, "boom")
	case <-time.After(time.Second):
		t.Fatal("job never finished")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Equal(t, uint64(1), q.Stats().Failed)
}

func TestQueueRetrySucceeds(t *testing.T) {
	var attempts int32
	done := make(chan error, 1)
	q := NewQueue("flaky", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) == 1 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{RetryDelay: time.Millisecond, MaxRetries: 3, OnDone: func(job Job, err error) { done <- err }})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "f", Key: "class-1"}))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("job never finished")
	}
	assert.Equal(t, uint64(1), q.Stats().Enqueued)
}
