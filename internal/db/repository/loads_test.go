package repository

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "schoolbook/internal/db"
	"schoolbook/internal/domain"
)

func setupLoadLedger(t *testing.T) *LoadLedger {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)
	return NewLoadLedger(writeDB)
}

func ptrStr(s string) *string { return &s }

func sampleRun(dataset string, startedAt time.Time) domain.LoadRun {
	return domain.LoadRun{
		ID:          domain.NewID(),
		Dataset:     dataset,
		SourcePath:  "/data/" + dataset + ".csv",
		RowCount:    3,
		ColumnCount: 6,
		Status:      domain.LoadSucceeded,
		StartedAt:   startedAt,
		FinishedAt:  startedAt.Add(200 * time.Millisecond),
	}
}

func TestLoadLedger_RecordAndLastRun(t *testing.T) {
	ledger := setupLoadLedger(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first := sampleRun("schools", base)
	second := sampleRun("schools", base.Add(time.Hour))
	second.RowCount = 2

	require.NoError(t, ledger.Record(ctx, first))
	require.NoError(t, ledger.Record(ctx, second))

	last, err := ledger.LastRun(ctx, "schools")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, second.ID, last.ID)
	assert.Equal(t, int64(2), last.RowCount)
	assert.Equal(t, 6, last.ColumnCount)
	assert.True(t, last.Succeeded())
	assert.Nil(t, last.Error)
}

func TestLoadLedger_LastRunUnknownDataset(t *testing.T) {
	ledger := setupLoadLedger(t)

	last, err := ledger.LastRun(context.Background(), "never_loaded")
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestLoadLedger_RecordFailedRun(t *testing.T) {
	ledger := setupLoadLedger(t)
	ctx := context.Background()

	run := sampleRun("schools", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	run.Status = domain.LoadFailed
	run.RowCount = 0
	run.ColumnCount = 0
	run.Error = ptrStr("read_csv: No files found")
	require.NoError(t, ledger.Record(ctx, run))

	last, err := ledger.LastRun(ctx, "schools")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.False(t, last.Succeeded())
	require.NotNil(t, last.Error)
	assert.Contains(t, *last.Error, "No files found")
}

func TestLoadLedger_DuplicateIDConflicts(t *testing.T) {
	ledger := setupLoadLedger(t)
	ctx := context.Background()

	run := sampleRun("schools", time.Now().UTC())
	require.NoError(t, ledger.Record(ctx, run))

	err := ledger.Record(ctx, run)
	require.Error(t, err)
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestLoadLedger_ListRuns(t *testing.T) {
	ledger := setupLoadLedger(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, ledger.Record(ctx, sampleRun("schools", base.Add(time.Duration(i)*time.Hour))))
	}
	failed := sampleRun("parks", base.Add(10*time.Hour))
	failed.Status = domain.LoadFailed
	failed.Error = ptrStr("boom")
	require.NoError(t, ledger.Record(ctx, failed))

	t.Run("all_newest_first", func(t *testing.T) {
		runs, total, err := ledger.ListRuns(ctx, domain.LoadRunFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, runs, 4)
		assert.Equal(t, "parks", runs[0].Dataset)
		for i := 1; i < len(runs); i++ {
			assert.False(t, runs[i-1].StartedAt.Before(runs[i].StartedAt))
		}
	})

	t.Run("filter_by_dataset", func(t *testing.T) {
		runs, total, err := ledger.ListRuns(ctx, domain.LoadRunFilter{Dataset: ptrStr("schools")})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		for _, r := range runs {
			assert.Equal(t, "schools", r.Dataset)
		}
	})

	t.Run("filter_by_status", func(t *testing.T) {
		runs, total, err := ledger.ListRuns(ctx, domain.LoadRunFilter{Status: ptrStr(domain.LoadFailed)})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, runs, 1)
		assert.Equal(t, "parks", runs[0].Dataset)
	})

	t.Run("pagination", func(t *testing.T) {
		page1, total, err := ledger.ListRuns(ctx, domain.LoadRunFilter{Page: domain.PageRequest{MaxResults: 2}})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, page1, 2)

		token := domain.NextPageToken(0, 2, total)
		require.NotEmpty(t, token)
		page2, _, err := ledger.ListRuns(ctx, domain.LoadRunFilter{Page: domain.PageRequest{MaxResults: 2, PageToken: token}})
		require.NoError(t, err)
		require.Len(t, page2, 2)
		assert.NotEqual(t, page1[0].ID, page2[0].ID)
	})
}
