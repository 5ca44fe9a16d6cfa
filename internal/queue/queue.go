// Package queue is the Redis-backed job queue consumed by the worker, plus the
// delayed re-check set used for domains that looked unreachable.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	DefaultName            = "domain_validation_queue"
	DefaultRecheckInterval = 30 * time.Second
	recheckSuffix          = ":recheck"
	defaultRequeueBackoff  = 15 * time.Minute
)

// ErrNoJob is returned by Pop when the wait timed out with the queue empty.
var ErrNoJob = errors.New("no job available")

// Job represents one domain validation request.
type Job struct {
	JobID   string `json:"jobId"`
	Domain  string `json:"domain"`
	Attempt int    `json:"attempt"`
}

// Queue is a Redis list of jobs plus a ZSET of jobs scheduled for later,
// scored by the unix time they become due.
type Queue struct {
	client  redis.UniversalClient
	name    string
	recheck string
	log     logrus.FieldLogger
}

// New returns a queue stored under name ("" uses DefaultName).
func New(client redis.UniversalClient, name string, log logrus.FieldLogger) *Queue {
	if name == "" {
		name = DefaultName
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Queue{client: client, name: name, recheck: name + recheckSuffix, log: log}
}

// Enqueue creates a job for domain with a fresh ID.
func (q *Queue) Enqueue(ctx context.Context, domain string) (Job, error) {
	job := Job{JobID: uuid.NewString(), Domain: domain}
	if err := q.Push(ctx, job); err != nil {
		return Job{}, err
	}
	return job, nil
}

// Push appends job to the queue.
func (q *Queue) Push(ctx context.Context, job Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if err := q.client.LPush(ctx, q.name, raw).Err(); err != nil {
		return fmt.Errorf("push job %s: %w", job.JobID, err)
	}
	return nil
}

// Pop blocks up to timeout for the next job. Malformed entries are dropped
// and reported as an error so the caller can log and carry on.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (Job, error) {
	result, err := q.client.BRPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return Job{}, ErrNoJob
	}
	if err != nil {
		return Job{}, fmt.Errorf("read queue: %w", err)
	}
	if len(result) < 2 {
		return Job{}, fmt.Errorf("invalid queue result: %v", result)
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return Job{}, fmt.Errorf("parse job: %w", err)
	}
	return job, nil
}

// Len returns the number of queued jobs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.name).Result()
}

// Schedule parks job in the re-check set until at.
func (q *Queue) Schedule(ctx context.Context, job Job, at time.Time) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	err = q.client.ZAdd(ctx, q.recheck, redis.Z{
		Score:  float64(at.Unix()),
		Member: string(raw),
	}).Err()
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", job.JobID, err)
	}
	return nil
}

// Scheduled returns the number of parked jobs.
func (q *Queue) Scheduled(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, q.recheck).Result()
}

// PromoteDue moves every parked job whose time has come back onto the queue
// and returns how many were moved. A job whose push fails is parked again.
func (q *Queue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	items, err := q.client.ZRangeByScore(ctx, q.recheck, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("read recheck set: %w", err)
	}

	moved := 0
	for _, item := range items {
		var job Job
		if err := json.Unmarshal([]byte(item), &job); err != nil {
			q.log.WithError(err).Warn("dropping malformed recheck entry")
			q.client.ZRem(ctx, q.recheck, item)
			continue
		}

		// ZREM decides ownership when several workers promote at once
		removed, err := q.client.ZRem(ctx, q.recheck, item).Result()
		if err != nil || removed == 0 {
			continue
		}

		if err := q.client.LPush(ctx, q.name, item).Err(); err != nil {
			q.log.WithError(err).WithField("domain", job.Domain).Warn("failed to requeue recheck job")
			q.client.ZAdd(ctx, q.recheck, redis.Z{
				Score:  float64(now.Add(defaultRequeueBackoff).Unix()),
				Member: item,
			})
			continue
		}
		moved++
	}
	return moved, nil
}

// RunRechecks promotes due jobs every interval until ctx is done.
func (q *Queue) RunRechecks(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRecheckInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := q.PromoteDue(ctx, time.Now())
			if err != nil {
				q.log.WithError(err).Warn("recheck promotion failed")
				continue
			}
			if n > 0 {
				q.log.WithField("count", n).Info("🔄 domains ready for recheck")
			}
		case <-ctx.Done():
			return
		}
	}
}
