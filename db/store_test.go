package db

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"attendance-analyzer-go/config"
	"attendance-analyzer-go/models"
)

func sampleDataset(id string, createdAt time.Time) *models.Dataset {
	return &models.Dataset{
		ID:        id,
		FileName:  "april.pdf",
		CreatedAt: createdAt,
		Summary: &models.DatasetSummary{
			TotalStudents:     2,
			AverageAttendance: 79.2,
			MonthlyData:       []models.MonthlyAttendance{{Month: "April", Attendance: 68.8}},
			Students: []models.StudentRecord{
				{RollNo: 1, AdmissionNo: "1001", Name: "JOHN DOE", DecToMar: 10, April: 5, Total: 15, AttendancePercent: 83.3, AprilPercent: 62.5},
				{RollNo: 2, AdmissionNo: "1002", Name: "JANE ROE", DecToMar: 9, April: 6, Total: 15, AttendancePercent: 75.0, AprilPercent: 75.0},
			},
		},
	}
}

func newTestRedis(t *testing.T, ttl time.Duration) (*RedisService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisService(client, ttl, zap.NewNop()), mr
}

// runStoreContract checks the behavior every DatasetStore must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) DatasetStore) {
	ctx := context.Background()
	base := time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC)

	t.Run("empty store", func(t *testing.T) {
		s := newStore(t)
		_, err := s.LatestDataset(ctx)
		assert.ErrorIs(t, err, ErrNoDataset)
		_, err = s.GetDataset(ctx, "missing")
		assert.ErrorIs(t, err, ErrDatasetNotFound)
		ids, err := s.ListDatasetIDs(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)
		assert.NoError(t, s.Ping(ctx))
	})

	t.Run("save and get", func(t *testing.T) {
		s := newStore(t)
		want := sampleDataset("a", base)
		require.NoError(t, s.SaveDataset(ctx, want))

		got, err := s.GetDataset(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
		assert.Equal(t, want.Summary, got.Summary)
	})

	t.Run("stored copy is independent", func(t *testing.T) {
		s := newStore(t)
		saved := sampleDataset("a", base)
		require.NoError(t, s.SaveDataset(ctx, saved))
		saved.Summary.Students[0].Name = "CHANGED AFTER SAVE"
		saved.Summary.TotalStudents = 99

		got, err := s.GetDataset(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, sampleDataset("a", base).Summary, got.Summary)

		got.Summary.Students[0].Name = "CHANGED AFTER GET"
		got.Summary.MonthlyData[0].Attendance = 0
		again, err := s.LatestDataset(ctx)
		require.NoError(t, err)
		assert.Equal(t, sampleDataset("a", base).Summary, again.Summary)
	})

	t.Run("latest is last write", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SaveDataset(ctx, sampleDataset("a", base)))
		require.NoError(t, s.SaveDataset(ctx, sampleDataset("b", base.Add(time.Minute))))

		latest, err := s.LatestDataset(ctx)
		require.NoError(t, err)
		assert.Equal(t, "b", latest.ID)

		older, err := s.GetDataset(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "a", older.ID)

		ids, err := s.ListDatasetIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, ids)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SaveDataset(ctx, sampleDataset("a", base)))
		require.NoError(t, s.SaveDataset(ctx, sampleDataset("b", base.Add(time.Minute))))

		require.NoError(t, s.DeleteDataset(ctx, "a"))
		_, err := s.GetDataset(ctx, "a")
		assert.ErrorIs(t, err, ErrDatasetNotFound)
		latest, err := s.LatestDataset(ctx)
		require.NoError(t, err)
		assert.Equal(t, "b", latest.ID)

		require.NoError(t, s.DeleteDataset(ctx, "b"))
		_, err = s.LatestDataset(ctx)
		assert.ErrorIs(t, err, ErrNoDataset)

		assert.ErrorIs(t, s.DeleteDataset(ctx, "b"), ErrDatasetNotFound)
	})

	t.Run("rejects invalid dataset", func(t *testing.T) {
		s := newStore(t)
		assert.Error(t, s.SaveDataset(ctx, nil))
		assert.Error(t, s.SaveDataset(ctx, &models.Dataset{ID: ""}))
		assert.Error(t, s.SaveDataset(ctx, &models.Dataset{ID: "x"}))
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) DatasetStore {
		return NewMemoryStore()
	})
}

func TestRedisService(t *testing.T) {
	runStoreContract(t, func(t *testing.T) DatasetStore {
		s, _ := newTestRedis(t, 0)
		return s
	})
}

func TestRedisService_TTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedis(t, time.Hour)

	require.NoError(t, s.SaveDataset(ctx, sampleDataset("old", time.Now().Add(-2*time.Hour))))
	require.NoError(t, s.SaveDataset(ctx, sampleDataset("new", time.Now())))
	assert.Equal(t, time.Hour, mr.TTL(datasetPrefix+"new"))

	ids, err := s.ListDatasetIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids)

	mr.FastForward(2 * time.Hour)
	_, err = s.GetDataset(ctx, "new")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
	_, err = s.LatestDataset(ctx)
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestRedisService_Unreachable(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedis(t, 0)
	mr.Close()

	assert.Error(t, s.Ping(ctx))
	_, err := s.GetDataset(ctx, "a")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDatasetNotFound)
}

func TestInitializeRedisClient(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cfg := config.RedisConfig{Addr: mr.Addr()}

	client, err := InitializeRedisClient(ctx, cfg)
	require.NoError(t, err)
	_ = client.Close()

	mr.Close()
	_, err = InitializeRedisClient(ctx, cfg)
	assert.Error(t, err)
}
