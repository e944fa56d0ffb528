package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/finscrape/models"
	"golang.org/x/sync/errgroup"
)

// Transform turns one fetched page into a value. Transforms of a batch run
// concurrently and must not share mutable state.
type Transform[T any] func(res *FetchResult) (T, error)

// Task is one pending unit of work in a batch.
type Task[T any] struct {
	URL       string
	Params    url.Values
	Transform Transform[T]
}

// BatchOptions tunes a batch run.
type BatchOptions struct {
	// MaxConcurrency caps in-flight tasks. <= 0 launches every task at once.
	MaxConcurrency int
}

// RunBatch fetches every task concurrently over one fresh session and
// returns one Result per task in submission order. A failed fetch or
// transform only fills its own slot; the caller picks the partial-success
// policy (see models.Values and models.Partition).
func RunBatch[T any](ctx context.Context, factory SessionFactory, tasks []Task[T], opts BatchOptions) []models.Result[T] {
	results := make([]models.Result[T], len(tasks))
	if len(tasks) == 0 {
		return results
	}

	batchID := uuid.NewString()
	start := time.Now()
	slog.Debug("batch starting", "batch", batchID, "tasks", len(tasks))

	session := factory.NewSession()
	defer session.Close()

	var g errgroup.Group
	if opts.MaxConcurrency > 0 {
		g.SetLimit(opts.MaxConcurrency)
	}

	for i := range tasks {
		task := tasks[i]
		g.Go(func() error {
			// Each goroutine writes only its own slot.
			results[i] = runTask(ctx, session, task)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	slog.Info("batch finished",
		"batch", batchID,
		"tasks", len(tasks),
		"failed", failed,
		"elapsed", time.Since(start),
	)
	return results
}

func runTask[T any](ctx context.Context, session Session, task Task[T]) models.Result[T] {
	if task.Transform == nil {
		return models.Err[T](models.NewScrapeError(models.ErrCodeInvalidInput, "task has no transform", nil))
	}
	res, err := session.Fetch(ctx, &FetchRequest{URL: task.URL, Params: task.Params})
	if err != nil {
		return models.Err[T](err)
	}
	v, err := task.Transform(res)
	if err != nil {
		return models.Err[T](fmt.Errorf("engine: transform %s: %w", res.FinalURL, err))
	}
	return models.Ok(v)
}
