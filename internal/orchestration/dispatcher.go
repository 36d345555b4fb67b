package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codejudge-ai/codejudge/internal/backends"
	"github.com/codejudge-ai/codejudge/internal/models"
)

// DefaultBackendTimeout bounds a single backend invocation when the caller
// does not configure one.
const DefaultBackendTimeout = 60 * time.Second

// Dispatcher fans one code unit out to a set of backends concurrently.
// Every selected backend gets its own deadline, and no backend fault of
// any kind escapes as an error: the output is always one BackendResult
// per supporting backend, in the order the backends were given.
type Dispatcher struct {
	timeout time.Duration
}

func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultBackendTimeout
	}
	return &Dispatcher{timeout: timeout}
}

// Dispatch evaluates unit on every backend that supports its language.
// Backends that do not support the language are skipped and contribute
// no result.
func (d *Dispatcher) Dispatch(ctx context.Context, unit *models.CodeUnit, list []backends.Backend) []models.BackendResult {
	selected := make([]backends.Backend, 0, len(list))
	for _, b := range list {
		if b.Supports(unit.Language) {
			selected = append(selected, b)
		}
	}

	results := make([]models.BackendResult, len(selected))

	var wg sync.WaitGroup
	for i, b := range selected {
		wg.Add(1)
		go func(idx int, b backends.Backend) {
			defer wg.Done()
			results[idx] = d.invoke(ctx, b, unit)
		}(i, b)
	}
	wg.Wait()

	return results
}

// invoke runs one backend under its own deadline. The deadline is detached
// from the caller's cancellation: once a backend is in flight it finishes
// or hits its own deadline, so a cancelled job drains its started units and
// never records them as timeouts. The select below is the hang guard: if a
// backend ignores its context and blocks past the deadline, the invocation
// is abandoned and recorded as a timeout while the goroutine is left to
// finish on its own.
func (d *Dispatcher) invoke(ctx context.Context, b backends.Backend, unit *models.CodeUnit) models.BackendResult {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan models.BackendResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- *models.FailedResult(b.Name(), models.Failure{
					Kind:    models.FailureInternal,
					Message: fmt.Sprintf("backend panicked: %v", r),
				})
			}
		}()

		res, err := b.Evaluate(callCtx, unit)
		if err != nil {
			done <- *models.FailedResult(b.Name(), classifyError(callCtx, err))
			return
		}
		if res == nil {
			done <- *models.FailedResult(b.Name(), models.Failure{
				Kind:    models.FailureInternal,
				Message: "backend returned no result",
			})
			return
		}
		done <- *res
	}()

	var result models.BackendResult
	select {
	case result = <-done:
	case <-callCtx.Done():
		result = *models.FailedResult(b.Name(), models.Failure{
			Kind:    models.FailureTimeout,
			Message: fmt.Sprintf("backend did not respond within %s", d.timeout),
			Hint:    "increase the per-backend timeout or reduce the size of the code unit",
		})
	}

	result = normalize(result, b.Name(), time.Since(start))
	if result.Failed() {
		slog.Debug("backend failed",
			"backend", b.Name(),
			"unit", unit.ID,
			"kind", result.Failure.Kind,
			"message", result.Failure.Message)
	}
	return result
}

func classifyError(ctx context.Context, err error) models.Failure {
	if ctx.Err() != nil {
		return models.Failure{
			Kind:    models.FailureTimeout,
			Message: err.Error(),
		}
	}
	return models.Failure{
		Kind:    models.FailureInternal,
		Message: err.Error(),
	}
}

// normalize enforces the result invariants regardless of what a backend
// produced: the backend name and duration are always filled in, scores are
// clamped, and confidence is zeroed whenever a failure is present.
func normalize(r models.BackendResult, backend string, elapsed time.Duration) models.BackendResult {
	r.Backend = backend
	if r.DurationMs == 0 {
		r.DurationMs = elapsed.Milliseconds()
	}
	r.Scores = r.Scores.Clamp()
	if r.Failure != nil {
		r.Confidence = 0
	} else if r.Confidence < 0 {
		r.Confidence = 0
	} else if r.Confidence > 1 {
		r.Confidence = 1
	}
	if r.Confidence == 0 && r.Failure == nil {
		r.Failure = &models.Failure{
			Kind:    models.FailureMalformedResponse,
			Message: "backend reported no confidence in its result",
		}
	}
	return r
}
