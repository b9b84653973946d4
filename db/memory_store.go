package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"attendance-analyzer-go/models"
)

// MemoryStore is a DatasetStore held in process memory. It keeps its own copy
// of each dataset, so callers may change what they pass in or get back.
type MemoryStore struct {
	mu       sync.RWMutex
	datasets map[string]*models.Dataset
	latestID string
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{datasets: make(map[string]*models.Dataset)}
}

func (s *MemoryStore) SaveDataset(_ context.Context, ds *models.Dataset) error {
	if ds == nil || ds.ID == "" {
		return errors.New("dataset ID cannot be empty")
	}
	if ds.Summary == nil {
		return fmt.Errorf("dataset %s has no summary", ds.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[ds.ID] = cloneDataset(ds)
	s.latestID = ds.ID
	return nil
}

func (s *MemoryStore) GetDataset(_ context.Context, id string) (*models.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[id]
	if !ok {
		return nil, ErrDatasetNotFound
	}
	return cloneDataset(ds), nil
}

func (s *MemoryStore) LatestDataset(ctx context.Context) (*models.Dataset, error) {
	s.mu.RLock()
	id := s.latestID
	s.mu.RUnlock()
	if id == "" {
		return nil, ErrNoDataset
	}
	ds, err := s.GetDataset(ctx, id)
	if errors.Is(err, ErrDatasetNotFound) {
		return nil, ErrNoDataset
	}
	return ds, err
}

func (s *MemoryStore) ListDatasetIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	all := make([]*models.Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		all = append(all, ds)
	}
	s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	ids := make([]string, len(all))
	for i, ds := range all {
		ids[i] = ds.ID
	}
	return ids, nil
}

func (s *MemoryStore) DeleteDataset(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.datasets[id]; !ok {
		return ErrDatasetNotFound
	}
	delete(s.datasets, id)
	if s.latestID == id {
		s.latestID = ""
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func cloneDataset(ds *models.Dataset) *models.Dataset {
	out := *ds
	summary := *ds.Summary
	if ds.Summary.MonthlyData != nil {
		summary.MonthlyData = make([]models.MonthlyAttendance, len(ds.Summary.MonthlyData))
		copy(summary.MonthlyData, ds.Summary.MonthlyData)
	}
	if ds.Summary.Students != nil {
		summary.Students = make([]models.StudentRecord, len(ds.Summary.Students))
		copy(summary.Students, ds.Summary.Students)
	}
	out.Summary = &summary
	return &out
}
