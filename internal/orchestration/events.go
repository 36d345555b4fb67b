package orchestration

import "github.com/codejudge-ai/codejudge/internal/models"

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

const (
	EventJobStart     EventType = "job_start"
	EventJobComplete  EventType = "job_complete"
	EventJobCancelled EventType = "job_cancelled"
	EventUnitStart    EventType = "unit_start"
	EventUnitComplete EventType = "unit_complete"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType  EventType
	JobID      string
	UnitID     string
	UnitNum    int
	TotalUnits int
	Status     models.JobStatus
	Score      float64
	DurationMs int64
}
