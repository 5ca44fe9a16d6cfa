package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"domain-validator/internal/metrics"
	"domain-validator/internal/model"
	"domain-validator/internal/queue"
)

const (
	popTimeout     = 5 * time.Second
	requeueTimeout = 5 * time.Second
)

type domainValidator interface {
	Validate(ctx context.Context, raw string) (model.ValidationResult, error)
}

type jobQueue interface {
	Pop(ctx context.Context, timeout time.Duration) (queue.Job, error)
	Push(ctx context.Context, job queue.Job) error
	Schedule(ctx context.Context, job queue.Job, at time.Time) error
}

type invalidator interface {
	Invalidate(ctx context.Context, domain string)
}

// worker consumes validation jobs. Domains that come back UNREACHABLE are
// parked for a later re-check, since DNS outages are often transient.
type worker struct {
	validator    domainValidator
	queue        jobQueue
	cache        invalidator
	workers      int
	recheckDelay time.Duration
	maxRechecks  int
	log          logrus.FieldLogger
	metrics      *metrics.Metrics
	now          func() time.Time
}

// run reads jobs until ctx is done and hands them to a fixed pool. Jobs
// already popped but not finished when ctx ends are pushed back.
func (w *worker) run(ctx context.Context) {
	jobs := make(chan queue.Job, w.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					w.requeue(ctx, job)
					continue
				}
				w.safeProcess(ctx, id, job)
			}
		}(i + 1)
	}
	fmt.Printf("✅ Started %d workers\n", w.workers)

	for ctx.Err() == nil {
		job, err := w.queue.Pop(ctx, popTimeout)
		if errors.Is(err, queue.ErrNoJob) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			w.log.WithError(err).Warn("⚠️  Error reading from queue")
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
			continue
		}

		select {
		case jobs <- job:
		case <-ctx.Done():
			w.requeue(ctx, job)
		}
	}

	close(jobs)
	wg.Wait()
}

func (w *worker) safeProcess(ctx context.Context, id int, job queue.Job) {
	defer func() {
		if r := recover(); r != nil {
			sentry.CurrentHub().Recover(r)
			w.metrics.IncJob("panic")
			w.log.WithField("domain", job.Domain).Errorf("[Worker %d] panic: %v", id, r)
		}
	}()
	w.process(ctx, id, job)
}

// process validates one job and decides whether it needs a re-check.
func (w *worker) process(ctx context.Context, id int, job queue.Job) {
	log := w.log.WithFields(logrus.Fields{"worker": id, "job_id": job.JobID, "attempt": job.Attempt})

	domain, err := model.Normalize(job.Domain)
	if err != nil {
		w.metrics.IncJob("invalid")
		log.WithField("input", job.Domain).Warn("❌ Invalid domain in job")
		return
	}
	log = log.WithField("domain", domain)

	if job.Attempt > 0 {
		// A re-check must not be answered from the cache
		w.cache.Invalidate(ctx, domain)
	}

	result, err := w.validator.Validate(ctx, domain)
	if err != nil && ctx.Err() != nil {
		// shutting down, not a verdict on the domain
		w.requeue(ctx, job)
		return
	}
	if err != nil {
		w.metrics.IncJob("failed")
		log.WithError(err).Warn("❌ Validation failed")
		return
	}

	if result.DomainType == model.TypeUnreachable && !result.Override && job.Attempt < w.maxRechecks {
		next := job
		next.Attempt++
		at := w.now().Add(w.recheckDelay)
		if err := w.queue.Schedule(ctx, next, at); err != nil {
			log.WithError(err).Warn("failed to schedule recheck")
		} else {
			w.metrics.IncJob("recheck")
			log.Infof("⏳ Unreachable, recheck at %s", at.Format(time.RFC3339))
			return
		}
	}

	w.metrics.IncJob("done")
	log.WithFields(logrus.Fields{
		"domain_type":    result.DomainType,
		"score":          result.QualityScore,
		"recommendation": result.Recommendation,
	}).Infof("%s %s", recommendationEmoji(result.Recommendation), domain)
}

// requeue puts job back on the queue after ctx has ended.
func (w *worker) requeue(ctx context.Context, job queue.Job) {
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requeueTimeout)
	defer cancel()

	if err := w.queue.Push(pushCtx, job); err != nil {
		w.metrics.IncJob("lost")
		w.log.WithError(err).WithField("domain", job.Domain).Error("❌ Failed to requeue job on shutdown")
		return
	}
	w.metrics.IncJob("requeued")
	w.log.WithField("domain", job.Domain).Info("↩️  Job requeued on shutdown")
}

func recommendationEmoji(r model.Recommendation) string {
	switch r {
	case model.RecommendAccept:
		return "✅"
	case model.RecommendReject:
		return "❌"
	case model.RecommendManualReview:
		return "🔍"
	default:
		return "❓"
	}
}
