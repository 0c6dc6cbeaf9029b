package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) *RetrainQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewRetrainQueue(client, logger)
}

func TestEnqueueAndDepth(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, RetrainJob{Reason: "data_refresh", Requested: time.Now()}))
	require.NoError(t, q.Enqueue(ctx, RetrainJob{Reason: "manual", Requested: time.Now()}))

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), depth)
}

func TestWorkerConsumesJob(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, RetrainJob{Reason: "manual", Requested: time.Now()}))

	ran := make(chan struct{}, 1)
	q.StartWorker(func(context.Context) error {
		ran <- struct{}{}
		return nil
	})
	defer q.StopWorker()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not consume the job in time")
	}
}

func TestWorkerSurvivesFailingRun(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, RetrainJob{Reason: "first"}))
	require.NoError(t, q.Enqueue(ctx, RetrainJob{Reason: "second"}))

	runs := make(chan struct{}, 2)
	q.StartWorker(func(context.Context) error {
		runs <- struct{}{}
		return errors.New("pipeline failed")
	})
	defer q.StopWorker()

	for i := 0; i < 2; i++ {
		select {
		case <-runs:
		case <-time.After(3 * time.Second):
			t.Fatalf("worker stalled after %d runs", i)
		}
	}
}

func TestStopWorkerIsIdempotentWithoutStart(t *testing.T) {
	q := newTestQueue(t)
	// StopWorker before StartWorker must not panic or hang.
	q.StopWorker()
}
