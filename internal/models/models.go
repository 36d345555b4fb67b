// Package models holds the shared value types that flow between the code
// unit source, the dispatcher, the aggregator and the job store.
package models

import (
	"strings"
	"time"

	"github.com/codejudge-ai/codejudge/internal/scoring"
)

// Language tags a code unit with the language a backend should assume.
type Language string

const (
	LanguagePython  Language = "python"
	LanguageSQL     Language = "sql"
	LanguagePySpark Language = "pyspark"
	LanguageUnknown Language = "unknown"
)

// ParseLanguage normalizes a free-form language tag.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "python", "py":
		return LanguagePython
	case "sql":
		return LanguageSQL
	case "pyspark":
		return LanguagePySpark
	default:
		return LanguageUnknown
	}
}

// CodeUnit is one independently evaluable fragment of source: a notebook
// cell, a SQL statement, or a whole script file.
type CodeUnit struct {
	ID        string   `json:"id"`
	Language  Language `json:"language"`
	Content   string   `json:"content"`
	LineCount int      `json:"line_count"`
}

// FailureKind classifies why a backend produced no usable judgment.
type FailureKind string

const (
	FailureTimeout           FailureKind = "timeout"
	FailureRateLimited       FailureKind = "rate_limited"
	FailureAuth              FailureKind = "auth_failure"
	FailureMalformedResponse FailureKind = "malformed_response"
	FailureInternal          FailureKind = "internal"
)

// Failure describes a classified backend failure. It travels inside the
// BackendResult as data; failures never propagate as program-level faults.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	Hint    string      `json:"hint,omitempty"`
}

// BackendResult is the outcome of one (code unit, backend) invocation.
// Invariant: Confidence is 0 exactly when Failure is set. A failed backend
// contributes zero weight to aggregation but stays visible in the report.
type BackendResult struct {
	Backend     string              `json:"backend"`
	Scores      scoring.ScoreVector `json:"scores"`
	Confidence  float64             `json:"confidence"`
	Feedback    string              `json:"feedback,omitempty"`
	Suggestions []string            `json:"suggestions,omitempty"`
	Failure     *Failure            `json:"failure,omitempty"`
	DurationMs  int64               `json:"duration_ms"`
}

// Failed reports whether this result carries a failure descriptor.
func (r *BackendResult) Failed() bool {
	return r.Failure != nil
}

// FailedResult builds a zero-confidence BackendResult for a classified
// failure, preserving the confidence/failure invariant.
func FailedResult(backend string, f Failure) *BackendResult {
	return &BackendResult{
		Backend:    backend,
		Confidence: 0,
		Failure:    &f,
	}
}

// UnitEvaluation is the aggregated, reportable outcome for one code unit.
// Contributed distinguishes "scored zero" from "every backend failed":
// it is false only when no backend produced a usable judgment.
type UnitEvaluation struct {
	UnitID       string              `json:"unit_id"`
	Language     Language            `json:"language"`
	Results      []BackendResult     `json:"results"`
	Scores       scoring.ScoreVector `json:"scores"`
	OverallScore float64             `json:"overall_score"`
	Contributed  bool                `json:"contributed"`
	Suggestions  []string            `json:"suggestions,omitempty"`
}

// JobStatus is the lifecycle state of an evaluation job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Progress is a pollable snapshot of a running job.
type Progress struct {
	UnitsCompleted int       `json:"units_completed"`
	TotalUnits     int       `json:"total_units"`
	Status         JobStatus `json:"status"`
}

// Report is the immutable record of a finished job, serialized to the
// job store on completion or failure.
type Report struct {
	JobID          string              `json:"job_id"`
	Name           string              `json:"name,omitempty"`
	Status         JobStatus           `json:"status"`
	FailureReason  string              `json:"failure_reason,omitempty"`
	Backends       []string            `json:"backends"`
	Units          []UnitEvaluation    `json:"units"`
	Scores         scoring.ScoreVector `json:"scores"`
	AggregateScore float64             `json:"aggregate_score"`
	StartedAt      time.Time           `json:"started_at"`
	CompletedAt    time.Time           `json:"completed_at"`
	DurationMs     int64               `json:"duration_ms"`
}
