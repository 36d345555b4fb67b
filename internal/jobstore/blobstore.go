package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/codejudge-ai/codejudge/internal/models"
)

// BlobStore keeps reports in an Azure Blob container, one JSON blob per
// job, so a shared team store needs no filesystem access.
type BlobStore struct {
	client    *azblob.Client
	container string
}

// NewBlobStore authenticates with the default Azure credential chain
// (env vars, workload identity, managed identity, az login).
func NewBlobStore(serviceURL, container string) (*BlobStore, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("acquiring azure credential: %w", err)
	}
	client, err := azblob.NewClient(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}
	return &BlobStore{client: client, container: container}, nil
}

func blobName(jobID string) string {
	return jobID + ".json"
}

func (bs *BlobStore) Save(ctx context.Context, report *models.Report) error {
	if report.JobID == "" {
		return fmt.Errorf("report has no job ID")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	_, err = bs.client.UploadBuffer(ctx, bs.container, blobName(report.JobID), data, nil)
	if err != nil {
		return fmt.Errorf("uploading report %s: %w", report.JobID, err)
	}
	return nil
}

func (bs *BlobStore) Get(ctx context.Context, id string) (*models.Report, error) {
	resp, err := bs.client.DownloadStream(ctx, bs.container, blobName(id), nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == 404 {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("downloading report %s: %w", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", id, err)
	}
	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", id, err)
	}
	return &report, nil
}

func (bs *BlobStore) List(ctx context.Context) ([]Summary, error) {
	var summaries []Summary
	pager := bs.client.NewListBlobsFlatPager(bs.container, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing reports: %w", err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil || !strings.HasSuffix(*item.Name, ".json") {
				continue
			}
			id := strings.TrimSuffix(*item.Name, ".json")
			report, err := bs.Get(ctx, id)
			if err != nil {
				continue
			}
			summaries = append(summaries, Summary{
				JobID:          report.JobID,
				Name:           report.Name,
				Status:         report.Status,
				Units:          len(report.Units),
				AggregateScore: report.AggregateScore,
				StartedAt:      report.StartedAt,
			})
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartedAt.After(summaries[j].StartedAt)
	})
	return summaries, nil
}
