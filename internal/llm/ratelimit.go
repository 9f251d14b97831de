package llm

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/Epistemic-Technology/schemacast/internal/logger"
)

const (
	// gpt-4o allows 30k tokens/min on the lowest tier; stay a little under.
	DefaultTokensPerSecond = 450
	DefaultBurstTokens     = 30000

	// Worker pool size for batch conversion
	DefaultMaxWorkers = 4

	// Fixed per-request overhead added to the character estimate, covering
	// the chat envelope and a typical JSON response.
	requestOverheadTokens = 500
)

// Throttle delays completion calls so that a client stays under a token
// budget. It never repeats a call. A nil *Throttle lets every call through.
type Throttle struct {
	limiter *rate.Limiter
	burst   int
}

// NewThrottle returns nil when tokensPerSecond is not positive.
func NewThrottle(tokensPerSecond, burst int) *Throttle {
	if tokensPerSecond <= 0 {
		return nil
	}
	if burst < tokensPerSecond {
		burst = tokensPerSecond
	}
	return &Throttle{
		limiter: rate.NewLimiter(rate.Limit(tokensPerSecond), burst),
		burst:   burst,
	}
}

// Wait blocks until n tokens are available or ctx is done. Requests larger
// than the burst size wait for a full bucket instead of failing.
func (t *Throttle) Wait(ctx context.Context, n int) error {
	if t == nil {
		return nil
	}
	n = min(max(n, 1), t.burst)
	if err := t.limiter.WaitN(ctx, n); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("throttle wait: %w", ctx.Err())
		}
		// the limiter refuses up front when the wait would pass the deadline
		if _, ok := ctx.Deadline(); ok {
			return fmt.Errorf("throttle wait: %w (%v)", context.DeadlineExceeded, err)
		}
		return fmt.Errorf("throttle wait: %w", err)
	}
	return nil
}

// EstimateTokens gives a rough token count for the given message parts,
// at about four characters per token.
func EstimateTokens(parts ...string) int {
	chars := 0
	for _, p := range parts {
		chars += len(p)
	}
	return chars/4 + requestOverheadTokens
}

// rateLimitPhrases are matched against the lowercased error text. A bare
// "429" is not enough: ports and request IDs contain it too.
var rateLimitPhrases = []string{
	"429 too many requests",
	"status 429",
	"status code 429",
	"status: 429",
	"too many requests",
	"rate limit",
	"rate_limit_exceeded",
	"insufficient_quota",
}

// isRateLimitError catches 429s that reach us without a typed API error,
// e.g. through a proxy that rewrites the body.
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, s := range rateLimitPhrases {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

// WorkerPool manages a pool of workers for parallel processing
type WorkerPool struct {
	maxWorkers int
	semaphore  chan struct{}
}

// NewWorkerPool creates a new worker pool with the specified maximum workers
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &WorkerPool{
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
	}
}

// Acquire acquires a worker slot, blocking if all workers are busy
func (wp *WorkerPool) Acquire(ctx context.Context) error {
	select {
	case wp.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release releases a worker slot, allowing another worker to proceed
func (wp *WorkerPool) Release() {
	<-wp.semaphore
}

// ParallelProcess runs processFn over items with at most maxWorkers in
// flight. Results keep the order of items. The first error is returned after
// every started worker has finished; items not yet started when ctx is
// cancelled are skipped.
func ParallelProcess[T any, R any](
	ctx context.Context,
	items []T,
	maxWorkers int,
	log logger.Logger,
	processFn func(context.Context, int, T) (R, error),
) ([]R, error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	wp := NewWorkerPool(maxWorkers)
	results := make([]R, len(items))

	type result struct {
		index int
		value R
		err   error
	}
	resultChan := make(chan result, len(items))

	started := 0
	var firstError error
	for i, item := range items {
		if err := wp.Acquire(ctx); err != nil {
			log.Warn("Stopping after %d of %d items: %v", started, len(items), err)
			firstError = err
			break
		}
		started++

		go func(idx int, itm T) {
			defer wp.Release()

			select {
			case <-ctx.Done():
				var zero R
				resultChan <- result{index: idx, value: zero, err: ctx.Err()}
				return
			default:
			}

			val, err := processFn(ctx, idx, itm)
			resultChan <- result{index: idx, value: val, err: err}
		}(i, item)
	}

	for range started {
		res := <-resultChan
		if res.err != nil && firstError == nil {
			firstError = res.err
		}
		results[res.index] = res.value
	}
	close(resultChan)

	if firstError != nil {
		return nil, firstError
	}
	return results, nil
}
