package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/codejudge-ai/codejudge/internal/backends"
	"github.com/codejudge-ai/codejudge/internal/models"
	"github.com/codejudge-ai/codejudge/internal/scoring"
	"github.com/codejudge-ai/codejudge/internal/source"
)

// DefaultWorkers bounds how many code units are evaluated at once.
const DefaultWorkers = 4

// ErrCancelled is reported as the job failure reason root when a caller
// cancels a running job.
var ErrCancelled = errors.New("job cancelled")

// Coordinator drives one evaluation job end to end: it pulls code units
// from a source, dispatches each unit across the configured backends with
// bounded parallelism, aggregates the results and produces a final report.
//
// Backend failures are absorbed into unit results and never fail the job.
// The job itself fails only when the source cannot be read, the weight
// table is invalid, or the caller cancels.
type Coordinator struct {
	dispatcher *Dispatcher
	backends   []backends.Backend
	weights    scoring.Weights
	workers    int
	name       string

	jobID string

	mu           sync.Mutex
	status       models.JobStatus
	completed    int
	total        int
	cancelReason string
	cancelRun    context.CancelFunc

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithWorkers sets how many units may be in flight at once.
func WithWorkers(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithBackendTimeout sets the per-backend invocation deadline.
func WithBackendTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.dispatcher = NewDispatcher(d)
	}
}

// WithName labels the job in reports.
func WithName(name string) CoordinatorOption {
	return func(c *Coordinator) {
		c.name = name
	}
}

// NewCoordinator validates the weight table up front; a bad table is a
// configuration error, not something to discover mid-job.
func NewCoordinator(list []backends.Backend, weights scoring.Weights, opts ...CoordinatorOption) (*Coordinator, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("at least one backend is required")
	}

	c := &Coordinator{
		dispatcher: NewDispatcher(DefaultBackendTimeout),
		backends:   list,
		weights:    weights,
		workers:    DefaultWorkers,
		jobID:      uuid.NewString(),
		status:     models.JobPending,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// JobID returns the identifier assigned to this job.
func (c *Coordinator) JobID() string { return c.jobID }

// OnProgress registers a progress listener
func (c *Coordinator) OnProgress(listener ProgressListener) {
	c.progressMu.Lock()
	defer c.progressMu.Unlock()
	c.listeners = append(c.listeners, listener)
}

func (c *Coordinator) notifyProgress(event ProgressEvent) {
	c.progressMu.Lock()
	listeners := make([]ProgressListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.progressMu.Unlock()

	event.JobID = c.jobID
	for _, listener := range listeners {
		listener(event)
	}
}

// Progress reports how far the job has advanced. The completed count only
// ever grows.
func (c *Coordinator) Progress() models.Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.Progress{
		UnitsCompleted: c.completed,
		TotalUnits:     c.total,
		Status:         c.status,
	}
}

// Cancel stops the job: units not yet started are skipped and in-flight
// units are drained. Cancelling a terminal job has no effect.
func (c *Coordinator) Cancel(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status.Terminal() || c.cancelReason != "" {
		return
	}
	if reason == "" {
		reason = ErrCancelled.Error()
	}
	c.cancelReason = reason
	if c.cancelRun != nil {
		c.cancelRun()
	}
}

// Run executes the job. It can be called once per Coordinator.
func (c *Coordinator) Run(ctx context.Context, src source.Source) (*models.Report, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.status != models.JobPending {
		c.mu.Unlock()
		return nil, fmt.Errorf("job %s already started", c.jobID)
	}
	c.status = models.JobRunning
	c.cancelRun = cancel
	c.mu.Unlock()

	started := time.Now()
	report := &models.Report{
		JobID:     c.jobID,
		Name:      c.name,
		Backends:  backendNames(c.backends),
		StartedAt: started,
	}

	units, err := src.Units(runCtx)
	if err != nil {
		return c.finishFailed(report, started, fmt.Sprintf("reading source: %v", err)), nil
	}

	c.mu.Lock()
	c.total = len(units)
	c.mu.Unlock()

	slog.Debug("job started",
		"job_id", c.jobID,
		"units", len(units),
		"backends", report.Backends,
		"workers", c.workers)

	c.notifyProgress(ProgressEvent{
		EventType:  EventJobStart,
		TotalUnits: len(units),
		Status:     models.JobRunning,
	})

	evaluated := make([]*models.UnitEvaluation, len(units))

	group, groupCtx := errgroup.WithContext(runCtx)
	group.SetLimit(c.workers)

	for i, unit := range units {
		if groupCtx.Err() != nil {
			break
		}
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return nil
			}
			c.notifyProgress(ProgressEvent{
				EventType:  EventUnitStart,
				UnitID:     unit.ID,
				UnitNum:    i + 1,
				TotalUnits: len(units),
			})

			unitStart := time.Now()
			results := c.dispatcher.Dispatch(groupCtx, unit, c.backends)
			eval, err := Aggregate(unit, results, c.weights)
			if err != nil {
				return err
			}
			evaluated[i] = &eval

			c.mu.Lock()
			c.completed++
			completed := c.completed
			c.mu.Unlock()

			c.notifyProgress(ProgressEvent{
				EventType:  EventUnitComplete,
				UnitID:     unit.ID,
				UnitNum:    completed,
				TotalUnits: len(units),
				Score:      eval.OverallScore,
				DurationMs: time.Since(unitStart).Milliseconds(),
			})
			return nil
		})
	}

	waitErr := group.Wait()

	c.mu.Lock()
	cancelReason := c.cancelReason
	c.mu.Unlock()

	if ctx.Err() != nil && cancelReason == "" {
		cancelReason = ctx.Err().Error()
	}

	// Keep the units that finished before cancellation, in source order.
	for _, eval := range evaluated {
		if eval != nil {
			report.Units = append(report.Units, *eval)
		}
	}

	if cancelReason != "" {
		c.notifyProgress(ProgressEvent{
			EventType: EventJobCancelled,
			Status:    models.JobFailed,
		})
		return c.finishFailed(report, started, cancelReason), nil
	}
	if waitErr != nil {
		return c.finishFailed(report, started, waitErr.Error()), nil
	}

	c.aggregateJob(report)
	report.Status = models.JobCompleted
	report.CompletedAt = time.Now()
	report.DurationMs = time.Since(started).Milliseconds()

	c.mu.Lock()
	c.status = models.JobCompleted
	c.mu.Unlock()

	c.notifyProgress(ProgressEvent{
		EventType:  EventJobComplete,
		TotalUnits: len(units),
		Status:     models.JobCompleted,
		Score:      report.AggregateScore,
		DurationMs: report.DurationMs,
	})
	return report, nil
}

// aggregateJob rolls unit evaluations up to job level: the aggregate score
// is the unweighted mean over every unit, and the job score vector is the
// mean of all unit vectors. A unit where every backend failed counts as
// zero rather than being dropped, so the aggregate reflects the whole job.
func (c *Coordinator) aggregateJob(report *models.Report) {
	if len(report.Units) == 0 {
		return
	}
	vectors := make([]scoring.ScoreVector, len(report.Units))
	confidences := make([]float64, len(report.Units))
	var sum float64
	for i, u := range report.Units {
		vectors[i] = u.Scores
		confidences[i] = 1
		sum += u.OverallScore
	}
	report.Scores = scoring.ConfidenceWeightedAverage(vectors, confidences)
	report.AggregateScore = sum / float64(len(report.Units))
}

func (c *Coordinator) finishFailed(report *models.Report, started time.Time, reason string) *models.Report {
	c.aggregateJob(report)
	report.Status = models.JobFailed
	report.FailureReason = reason
	report.CompletedAt = time.Now()
	report.DurationMs = time.Since(started).Milliseconds()

	c.mu.Lock()
	c.status = models.JobFailed
	c.mu.Unlock()
	return report
}

func backendNames(list []backends.Backend) []string {
	names := make([]string, len(list))
	for i, b := range list {
		names[i] = b.Name()
	}
	return names
}
