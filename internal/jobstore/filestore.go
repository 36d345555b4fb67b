// Package jobstore persists finished job reports and serves them back for
// listing and inspection.
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/codejudge-ai/codejudge/internal/models"
)

// ErrJobNotFound is returned when a job ID does not match any stored report.
var ErrJobNotFound = errors.New("job not found")

// Store provides access to stored job reports.
type Store interface {
	// Save persists a finished report.
	Save(ctx context.Context, report *models.Report) error
	// Get returns a single report by job ID.
	Get(ctx context.Context, id string) (*models.Report, error)
	// List returns summaries of all reports, newest first.
	List(ctx context.Context) ([]Summary, error)
}

// Summary is the listing row for one stored job.
type Summary struct {
	JobID          string           `json:"job_id"`
	Name           string           `json:"name,omitempty"`
	Status         models.JobStatus `json:"status"`
	Units          int              `json:"units"`
	AggregateScore float64          `json:"aggregate_score"`
	StartedAt      time.Time        `json:"started_at"`
}

// FileStore keeps one JSON file per report in a directory.
type FileStore struct {
	dir string

	mu      sync.RWMutex
	reports map[string]*models.Report
	loaded  bool
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:     dir,
		reports: make(map[string]*models.Report),
	}
}

func (fs *FileStore) Save(_ context.Context, report *models.Report) error {
	if report.JobID == "" {
		return fmt.Errorf("report has no job ID")
	}
	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	path := filepath.Join(fs.dir, report.JobID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.loaded {
		fs.reports[report.JobID] = report
	}
	return nil
}

func (fs *FileStore) Get(_ context.Context, id string) (*models.Report, error) {
	if err := fs.ensureLoaded(); err != nil {
		return nil, err
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	report, ok := fs.reports[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return report, nil
}

func (fs *FileStore) List(_ context.Context) ([]Summary, error) {
	if err := fs.ensureLoaded(); err != nil {
		return nil, err
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	summaries := make([]Summary, 0, len(fs.reports))
	for _, r := range fs.reports {
		summaries = append(summaries, Summary{
			JobID:          r.JobID,
			Name:           r.Name,
			Status:         r.Status,
			Units:          len(r.Units),
			AggregateScore: r.AggregateScore,
			StartedAt:      r.StartedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartedAt.After(summaries[j].StartedAt)
	})
	return summaries, nil
}

// Reload forces a fresh read of all report files from disk.
func (fs *FileStore) Reload() error {
	return fs.load()
}

func (fs *FileStore) ensureLoaded() error {
	fs.mu.RLock()
	if fs.loaded {
		fs.mu.RUnlock()
		return nil
	}
	fs.mu.RUnlock()
	return fs.load()
}

// load reads all report JSON files from the configured directory. Files
// that fail to parse are skipped rather than failing the whole listing.
func (fs *FileStore) load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.reports = make(map[string]*models.Report)

	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		if os.IsNotExist(err) {
			fs.loaded = true
			return nil
		}
		return err
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(fs.dir, e.Name()))
		if err != nil {
			continue
		}
		var report models.Report
		if err := json.Unmarshal(data, &report); err != nil {
			slog.Warn("skipping unreadable report file", "file", e.Name(), "error", err)
			continue
		}
		if report.JobID == "" {
			report.JobID = strings.TrimSuffix(e.Name(), ".json")
		}
		fs.reports[report.JobID] = &report
	}

	fs.loaded = true
	return nil
}
