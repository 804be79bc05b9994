package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of one job in a batch.
type BatchResult struct {
	Job    *Job
	Result *Result
	Err    error
}

// AnalyzeAll analyzes jobs with at most limit running at once. A failing
// job does not stop the others; its error is reported in its slot. Results
// are in the order of jobs. Cancelling ctx stops jobs that have not started.
func (p *Pipeline) AnalyzeAll(ctx context.Context, jobs []*Job, limit int) []BatchResult {
	if limit < 1 {
		limit = p.config.Concurrency
	}
	if limit < 1 {
		limit = 1
	}

	results := make([]BatchResult, len(jobs))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i, job := range jobs {
		g.Go(func() error {
			br := BatchResult{Job: job}
			if err := ctx.Err(); err != nil {
				br.Err = err
			} else {
				br.Result, br.Err = p.Analyze(ctx, job)
			}
			if br.Err != nil {
				id := ""
				if job != nil {
					id = job.ID
				}
				p.logger.Error().Err(br.Err).Str("job_id", id).Msg("job failed")
			}

			mu.Lock()
			results[i] = br
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	p.logger.Info().Int("jobs", len(jobs)).Int("failed", countFailed(results)).Msg("batch complete")
	return results
}

func countFailed(results []BatchResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
