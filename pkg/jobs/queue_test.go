package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job")
		panic("unreachable")
	}
}

func TestQueueDeliversTypedPayload(t *testing.T) {
	handled := make(chan Job[string], 1)
	q := NewQueue[string]("test", func(ctx context.Context, job Job[string]) error {
		handled <- job
		return nil
	}, QueueConfig{Workers: 1})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[string]{ID: "job-1", Payload: "ranking"}))

	job := waitFor(t, handled)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, "ranking", job.Payload)
	assert.False(t, job.Enqueued.IsZero())
}

func TestQueueRetriesUntilHandlerSucceeds(t *testing.T) {
	attempts := make(chan int, 4)
	q := NewQueue[string]("test", func(ctx context.Context, job Job[string]) error {
		attempts <- job.Attempt
		if job.Attempt == 0 {
			return fmt.Errorf("transient failure")
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 10 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[string]{ID: "job-1", Payload: "projects"}))

	assert.Equal(t, 0, waitFor(t, attempts))
	assert.Equal(t, 1, waitFor(t, attempts))
}

func TestQueueEnqueueFailsBeforeStart(t *testing.T) {
	q := NewQueue[string]("test", func(ctx context.Context, job Job[string]) error {
		return nil
	}, QueueConfig{})

	err := q.Enqueue(Job[string]{ID: "job-1"})
	require.Error(t, err)
}
