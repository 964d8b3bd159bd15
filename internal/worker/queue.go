package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"mindmosaic-backend/internal/models"
)

var ErrQueueClosed = errors.New("queue closed")

// Queue carries jobs from HTTP handlers to the worker goroutines. Pop returns
// (nil, nil) when nothing arrived within the timeout.
type Queue interface {
	Push(ctx context.Context, job models.Job) error
	Pop(ctx context.Context, timeout time.Duration) (*models.Job, error)
	Lock(ctx context.Context, jobID string) (bool, error)
	Unlock(ctx context.Context, jobID string)
}

func jobQueueName(jobType string) string {
	return "queue:" + jobType
}

var queueNames = []string{
	jobQueueName(models.JobTypeChatReply),
	jobQueueName(models.JobTypeAssessment),
}

type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Push(ctx context.Context, job models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	return q.client.LPush(ctx, jobQueueName(job.Type), data).Err()
}

func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (*models.Job, error) {
	result, err := q.client.BLPop(ctx, timeout, queueNames...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}

	var job models.Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}
	return &job, nil
}

func (q *RedisQueue) Lock(ctx context.Context, jobID string) (bool, error) {
	return q.client.SetNX(ctx, "job_lock:"+jobID, "1", 10*time.Minute).Result()
}

func (q *RedisQueue) Unlock(ctx context.Context, jobID string) {
	q.client.Del(ctx, "job_lock:"+jobID)
}

// MemoryQueue is a buffered channel for single-process deployments.
type MemoryQueue struct {
	jobs chan models.Job

	sendMu sync.RWMutex
	closed bool

	mu    sync.Mutex
	locks map[string]struct{}
}

func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{
		jobs:  make(chan models.Job, size),
		locks: make(map[string]struct{}),
	}
}

func (q *MemoryQueue) Push(ctx context.Context, job models.Job) error {
	q.sendMu.RLock()
	defer q.sendMu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Pop(ctx context.Context, timeout time.Duration) (*models.Job, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case job, ok := <-q.jobs:
		if !ok {
			return nil, ErrQueueClosed
		}
		return &job, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryQueue) Lock(_ context.Context, jobID string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, held := q.locks[jobID]; held {
		return false, nil
	}
	q.locks[jobID] = struct{}{}
	return true, nil
}

func (q *MemoryQueue) Unlock(_ context.Context, jobID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.locks, jobID)
}

// Close stops accepting jobs. Pop keeps returning buffered jobs and reports
// ErrQueueClosed once the buffer is empty.
func (q *MemoryQueue) Close() {
	q.sendMu.Lock()
	defer q.sendMu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
}
