package validator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"domain-validator/internal/model"
)

// ValidateBatch validates each input independently with bounded
// concurrency. Inputs that fail are left out; results keep input order.
func (v *Validator) ValidateBatch(ctx context.Context, domains []string) model.BatchResult {
	start := time.Now()

	type slot struct {
		result model.ValidationResult
		ok     bool
	}
	slots := make([]slot, len(domains))
	sem := semaphore.NewWeighted(v.batchSize)

	var wg sync.WaitGroup
	for i, raw := range domains {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int, raw string) {
			defer wg.Done()
			defer sem.Release(1)
			defer func() {
				if r := recover(); r != nil {
					v.log.WithField("input", raw).Errorf("validation panicked: %v", r)
				}
			}()

			res, err := v.Validate(ctx, raw)
			if err != nil {
				v.log.WithError(err).WithField("input", raw).Warn("batch entry failed")
				return
			}
			slots[i] = slot{result: res, ok: true}
		}(i, raw)
	}
	wg.Wait()

	results := make([]model.ValidationResult, 0, len(domains))
	for _, s := range slots {
		if s.ok {
			results = append(results, s.result)
		}
	}
	return model.BatchResult{
		Results:        results,
		TotalProcessed: len(results),
		ElapsedSeconds: time.Since(start).Seconds(),
	}
}
