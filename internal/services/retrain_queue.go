package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	retrainStream   = "indicator:retrain"
	retrainGroup    = "indicator-workers"
	retrainConsumer = "worker-1"
	retrainMaxLen   = 1000
)

// RetrainJob asks the worker to re-run the CLI pipeline.
type RetrainJob struct {
	Reason    string    `json:"reason"`
	Requested time.Time `json:"requested"`
}

// RetrainQueue is a redis-stream-backed queue of asynchronous pipeline
// re-runs. The API's recalculate endpoint and the collector both produce;
// a single worker goroutine consumes.
type RetrainQueue struct {
	redis  *redis.Client
	logger *logrus.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRetrainQueue(redisClient *redis.Client, logger *logrus.Logger) *RetrainQueue {
	return &RetrainQueue{redis: redisClient, logger: logger}
}

// Enqueue appends a job to the stream, trimming old entries.
func (q *RetrainQueue) Enqueue(ctx context.Context, job RetrainJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to serialize retrain job: %w", err)
	}
	err = q.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: retrainStream,
		MaxLen: retrainMaxLen,
		Approx: true,
		Values: map[string]interface{}{"job": payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to enqueue retrain job: %w", err)
	}
	return nil
}

// Depth returns the number of pending entries in the stream.
func (q *RetrainQueue) Depth(ctx context.Context) (int64, error) {
	return q.redis.XLen(ctx, retrainStream).Result()
}

// StartWorker launches the consumer loop. Each job triggers one pipeline
// run; failures are logged and the job acknowledged so a poisoned job cannot
// wedge the stream.
func (q *RetrainQueue) StartWorker(run func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel

	// Group may already exist; BUSYGROUP is fine.
	if err := q.redis.XGroupCreateMkStream(ctx, retrainStream, retrainGroup, "0").Err(); err != nil && !isBusyGroup(err) {
		q.logger.WithError(err).Warn("Failed to create retrain consumer group")
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			streams, err := q.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    retrainGroup,
				Consumer: retrainConsumer,
				Streams:  []string{retrainStream, ">"},
				Count:    1,
				Block:    5 * time.Second,
			}).Result()
			if err == redis.Nil || len(streams) == 0 {
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				q.logger.WithError(err).Warn("Retrain queue read failed")
				time.Sleep(time.Second)
				continue
			}

			for _, stream := range streams {
				for _, msg := range stream.Messages {
					q.handleMessage(ctx, msg, run)
				}
			}
		}
	}()

	q.logger.Info("Retrain queue worker started")
}

// StopWorker cancels the consumer loop and waits for it.
func (q *RetrainQueue) StopWorker() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
	q.logger.Info("Retrain queue worker stopped")
}

func (q *RetrainQueue) handleMessage(ctx context.Context, msg redis.XMessage, run func(ctx context.Context) error) {
	defer func() {
		if err := q.redis.XAck(ctx, retrainStream, retrainGroup, msg.ID).Err(); err != nil && ctx.Err() == nil {
			q.logger.WithError(err).Warn("Failed to ack retrain job")
		}
	}()

	var job RetrainJob
	if raw, ok := msg.Values["job"].(string); ok {
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			q.logger.WithError(err).Warn("Discarding malformed retrain job")
			return
		}
	}

	q.logger.WithFields(logrus.Fields{
		"job_id": msg.ID,
		"reason": job.Reason,
	}).Info("Processing retrain job")

	if err := run(ctx); err != nil {
		q.logger.WithError(err).WithField("job_id", msg.ID).Error("Retrain run failed")
	}
}

func isBusyGroup(err error) bool {
	return err != nil && len(err.Error()) >= 9 && err.Error()[:9] == "BUSYGROUP"
}
