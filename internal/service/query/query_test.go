package query

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "schoolbook/internal/db"
	"schoolbook/internal/db/repository"
	"schoolbook/internal/domain"
)

const schoolsCSV = `SCHOOL_ID,SCHOOL_NM,SCH_ADDR,GRADE_CAT,GRADES,SCH_TYPE
1,A School,1 Main St,ES,K-5,District
2,B School,2 Oak Ave,MS,6-8,District
3,C Academy,3 Elm Rd,HS,9-12,Charter
`

func setupQuery(t *testing.T) (*Service, *repository.RecordStore, *repository.LoadLedger) {
	t.Helper()

	store := repository.NewRecordStore(internaldb.OpenTestDuckDB(t))
	writeDB, _ := internaldb.OpenTestSQLite(t)
	ledger := repository.NewLoadLedger(writeDB)

	svc := NewService(store, ledger, "SCHOOL_NM", slog.New(slog.DiscardHandler))
	return svc, store, ledger
}

func loadSchools(t *testing.T, store *repository.RecordStore) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schools.csv")
	require.NoError(t, os.WriteFile(path, []byte(schoolsCSV), 0o600))
	_, _, err := store.ReplaceFromCSV(context.Background(), "schools", path)
	require.NoError(t, err)
}

func TestRecords_FullScan(t *testing.T) {
	svc, store, _ := setupQuery(t)
	loadSchools(t, store)

	rs, err := svc.Records(context.Background(), "schools", Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, rs.RowCount)
	assert.Equal(t, []string{"SCHOOL_ID", "SCHOOL_NM", "SCH_ADDR", "GRADE_CAT", "GRADES", "SCH_TYPE"}, rs.Columns)

	maps := rs.Maps()
	require.Len(t, maps, 3)
	names := make([]string, 0, 3)
	for _, m := range maps {
		names = append(names, m["SCHOOL_NM"].(string))
	}
	assert.ElementsMatch(t, []string{"A School", "B School", "C Academy"}, names)
}

func TestRecords_NameFilter(t *testing.T) {
	svc, store, _ := setupQuery(t)
	loadSchools(t, store)
	ctx := context.Background()

	t.Run("substring", func(t *testing.T) {
		rs, err := svc.Records(ctx, "schools", Filter{Name: "School"})
		require.NoError(t, err)
		assert.Equal(t, 2, rs.RowCount)
	})

	t.Run("case_insensitive", func(t *testing.T) {
		rs, err := svc.Records(ctx, "schools", Filter{Name: "aCaDeMy"})
		require.NoError(t, err)
		assert.Equal(t, 1, rs.RowCount)
	})

	t.Run("whitespace_only_is_full_scan", func(t *testing.T) {
		rs, err := svc.Records(ctx, "schools", Filter{Name: "   "})
		require.NoError(t, err)
		assert.Equal(t, 3, rs.RowCount)
	})

	t.Run("no_match", func(t *testing.T) {
		rs, err := svc.Records(ctx, "schools", Filter{Name: "zzz"})
		require.NoError(t, err)
		assert.Equal(t, 0, rs.RowCount)
	})
}

func TestRecords_MissingNameColumn(t *testing.T) {
	store := repository.NewRecordStore(internaldb.OpenTestDuckDB(t))
	svc := NewService(store, nil, "NO_SUCH_COLUMN", slog.New(slog.DiscardHandler))
	loadSchools(t, store)

	_, err := svc.Records(context.Background(), "schools", Filter{Name: "x"})
	require.Error(t, err)
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestRecords_NameColumnOverride(t *testing.T) {
	svc, store, _ := setupQuery(t)
	loadSchools(t, store)

	svc.SetNameColumn("schools", "SCH_TYPE")
	assert.Equal(t, "SCH_TYPE", svc.NameColumn("schools"))
	assert.Equal(t, "SCHOOL_NM", svc.NameColumn("other"))

	rs, err := svc.Records(context.Background(), "schools", Filter{Name: "charter"})
	require.NoError(t, err)
	assert.Equal(t, 1, rs.RowCount)
}

func TestRecords_MissingTable(t *testing.T) {
	svc, _, _ := setupQuery(t)

	_, err := svc.Records(context.Background(), "schools", Filter{})
	require.Error(t, err)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestRecords_InvalidDataset(t *testing.T) {
	svc, _, _ := setupQuery(t)

	_, err := svc.Records(context.Background(), "schools; DROP TABLE x", Filter{})
	require.Error(t, err)
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestStatus(t *testing.T) {
	svc, store, ledger := setupQuery(t)
	loadSchools(t, store)
	ctx := context.Background()

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, ledger.Record(ctx, domain.LoadRun{
		ID: domain.NewID(), Dataset: "schools", SourcePath: "/data/schools.csv",
		RowCount: 3, ColumnCount: 6, Status: domain.LoadSucceeded,
		StartedAt: started, FinishedAt: started.Add(time.Second),
	}))

	status, err := svc.Status(ctx, "schools")
	require.NoError(t, err)
	assert.Equal(t, "schools", status.Dataset)
	assert.Equal(t, int64(3), status.RowCount)
	assert.Len(t, status.Columns, 6)
	require.NotNil(t, status.LastRun)
	assert.Equal(t, int64(3), status.LastRun.RowCount)
}

func TestStatus_MissingTable(t *testing.T) {
	svc, _, _ := setupQuery(t)

	_, err := svc.Status(context.Background(), "schools")
	require.Error(t, err)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestRuns(t *testing.T) {
	svc, _, ledger := setupQuery(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, ledger.Record(ctx, domain.LoadRun{
			ID: domain.NewID(), Dataset: "schools", SourcePath: "/data/schools.csv",
			RowCount: int64(i), ColumnCount: 6, Status: domain.LoadSucceeded,
			StartedAt: now.Add(time.Duration(i) * time.Minute), FinishedAt: now.Add(time.Duration(i)*time.Minute + time.Second),
		}))
	}

	runs, total, err := svc.Runs(ctx, domain.LoadRunFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, runs, 3)
	assert.Equal(t, int64(2), runs[0].RowCount)
}
