package batch

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/Epistemic-Technology/schemacast/internal/llm"
	"github.com/Epistemic-Technology/schemacast/internal/logger"
	"github.com/Epistemic-Technology/schemacast/internal/pipeline"
	"github.com/Epistemic-Technology/schemacast/models"
)

// Item is one document of a batch.
type Item struct {
	Name  string
	Input models.RawInput
}

// ItemResult pairs an item with the result of its final attempt.
type ItemResult struct {
	Name     string           `json:"name"`
	Attempts int              `json:"attempts"`
	Result   *pipeline.Result `json:"result"`
}

// OK reports whether the item produced validated output. An item whose
// context ended before its first attempt has no Result and is not OK.
func (r ItemResult) OK() bool {
	if r.Result == nil {
		return false
	}
	_, ok := r.Result.Final()
	return ok
}

type Options struct {
	MaxWorkers int
	// Retries is the number of extra attempts for transient failures.
	// Negative values are treated as zero.
	Retries    int
	RetryDelay time.Duration
}

// Runner converts many documents against one schema. A failing document
// never stops its siblings.
type Runner struct {
	orch *pipeline.Orchestrator
	opts Options
	log  logger.Logger
}

func NewRunner(orch *pipeline.Orchestrator, opts Options, log logger.Logger) *Runner {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = llm.DefaultMaxWorkers
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	return &Runner{orch: orch, opts: opts, log: log}
}

// Run converts every item. Results are in item order. The error is non-nil
// only when ctx ends before all items were started.
func (r *Runner) Run(ctx context.Context, items []Item, schemaText string) ([]ItemResult, error) {
	r.log.Info("Converting %d documents with up to %d workers", len(items), r.opts.MaxWorkers)

	results, err := llm.ParallelProcess(ctx, items, r.opts.MaxWorkers, r.log, func(ctx context.Context, idx int, item Item) (ItemResult, error) {
		return r.convert(ctx, item, schemaText), nil
	})
	if err != nil {
		return nil, err
	}

	failed := 0
	for _, res := range results {
		if !res.OK() {
			failed++
		}
	}
	r.log.Info("Batch finished: %d converted, %d failed", len(results)-failed, failed)
	return results, nil
}

func (r *Runner) convert(ctx context.Context, item Item, schemaText string) ItemResult {
	out := ItemResult{Name: item.Name}

	_ = retry.Do(
		func() error {
			out.Attempts++
			result, err := r.orch.RunDocument(ctx, item.Input, schemaText)
			out.Result = result
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(r.opts.Retries+1)),
		retry.Delay(r.opts.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(Retryable),
		retry.OnRetry(func(n uint, err error) {
			r.log.Warn("Retrying %s after attempt %d: %v", item.Name, n+1, err)
		}),
	)
	if out.Result == nil {
		r.log.Warn("%s was not attempted: %v", item.Name, ctx.Err())
	}
	return out
}

// Retryable reports whether a failed run may succeed on another attempt.
// Rate limits are never retried; neither are failures caused by the input,
// the schema or the model's answer.
func Retryable(err error) bool {
	var f *pipeline.Failure
	if !errors.As(err, &f) {
		return false
	}
	switch f.Kind {
	case pipeline.KindTimeout:
		return true
	case pipeline.KindExtraction:
		var svcErr *llm.ServiceError
		if errors.As(err, &svcErr) {
			return svcErr.StatusCode == 0 || svcErr.StatusCode >= http.StatusInternalServerError
		}
		return false
	default:
		return false
	}
}
