package db

import (
	"context"
	"errors"

	"attendance-analyzer-go/models"
)

var (
	// ErrDatasetNotFound is returned for an unknown dataset ID
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrNoDataset is returned by LatestDataset before any report was analyzed
	ErrNoDataset = errors.New("data not available, please upload a PDF first")
)

// DatasetStore keeps analyzed datasets by ID and remembers the most recent one
type DatasetStore interface {
	// SaveDataset stores ds under ds.ID and makes it the latest dataset
	SaveDataset(ctx context.Context, ds *models.Dataset) error
	GetDataset(ctx context.Context, id string) (*models.Dataset, error)
	// LatestDataset returns the last saved dataset, or ErrNoDataset
	LatestDataset(ctx context.Context) (*models.Dataset, error)
	// ListDatasetIDs returns stored IDs, newest first
	ListDatasetIDs(ctx context.Context) ([]string, error)
	DeleteDataset(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

var (
	_ DatasetStore = (*RedisService)(nil)
	_ DatasetStore = (*MemoryStore)(nil)
)
