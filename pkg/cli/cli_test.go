package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schoolsCSV = `SCHOOL_ID,SCHOOL_NM,SCH_ADDR,GRADE_CAT,GRADES,SCH_TYPE
609966,A School,123 Main St,Elementary,K-5,District
610002,B School,456 Oak Ave,High school,9-12,Charter
610124,C Academy,789 Pine Rd,Middle school,6-8,District
`

const parksCSV = `PARK_ID,PARK_NAME,ACRES
1,Riverside Park,12.5
2,Hilltop Green,3.2
`

// runCLI executes a fresh root command and returns everything it wrote to
// stdout. Errors come back unprinted because the root command silences them.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	execErr := rootCmd.Execute()

	_ = w.Close()
	out, _ := io.ReadAll(r)
	os.Stdout = old

	return string(out), execErr
}

// testPaths returns fresh store paths and a schools CSV inside a temp dir.
func testPaths(t *testing.T) (dataDB, metaDB, csvPath string) {
	t.Helper()
	dir := t.TempDir()
	csvPath = filepath.Join(dir, "schools.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(schoolsCSV), 0o644))
	return filepath.Join(dir, "data.duckdb"), filepath.Join(dir, "meta.sqlite"), csvPath
}

func TestCLI_LoadThenStatus(t *testing.T) {
	dataDB, metaDB, csvPath := testPaths(t)

	out, err := runCLI(t, "load", "--csv", csvPath, "--data-db", dataDB, "--meta-db", metaDB)
	require.NoError(t, err)
	assert.Contains(t, out, "DATASET")
	assert.Contains(t, out, "schools")
	assert.Contains(t, out, "succeeded")

	out, err = runCLI(t, "status", "--data-db", dataDB, "--meta-db", metaDB, "--output", "json")
	require.NoError(t, err)

	var status struct {
		Dataset     string                 `json:"dataset"`
		RowCount    int64                  `json:"row_count"`
		ColumnCount int                    `json:"column_count"`
		Columns     []string               `json:"columns"`
		LastLoad    map[string]interface{} `json:"last_load"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, "schools", status.Dataset)
	assert.EqualValues(t, 3, status.RowCount)
	assert.Equal(t, 6, status.ColumnCount)
	assert.Contains(t, status.Columns, "SCHOOL_NM")
	require.NotNil(t, status.LastLoad)
	assert.Equal(t, "succeeded", status.LastLoad["status"])
}

func TestCLI_Load_JSONOutput(t *testing.T) {
	dataDB, metaDB, csvPath := testPaths(t)

	out, err := runCLI(t, "load", "--csv", csvPath, "--data-db", dataDB, "--meta-db", metaDB, "--output", "json")
	require.NoError(t, err)

	var runs []struct {
		Dataset     string `json:"dataset"`
		Status      string `json:"status"`
		RowCount    int64  `json:"row_count"`
		ColumnCount int    `json:"column_count"`
		SourcePath  string `json:"source_path"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "schools", runs[0].Dataset)
	assert.Equal(t, "succeeded", runs[0].Status)
	assert.EqualValues(t, 3, runs[0].RowCount)
	assert.Equal(t, 6, runs[0].ColumnCount)
	assert.Equal(t, csvPath, runs[0].SourcePath)
}

func TestCLI_Load_CustomDataset(t *testing.T) {
	dataDB, metaDB, _ := testPaths(t)
	dir := t.TempDir()
	parksPath := filepath.Join(dir, "parks.csv")
	require.NoError(t, os.WriteFile(parksPath, []byte(parksCSV), 0o644))

	out, err := runCLI(t, "load",
		"--csv", parksPath,
		"--dataset", "parks",
		"--name-column", "PARK_NAME",
		"--data-db", dataDB, "--meta-db", metaDB)
	require.NoError(t, err)
	assert.Contains(t, out, "parks")

	out, err = runCLI(t, "status", "--dataset", "parks", "--data-db", dataDB, "--meta-db", metaDB, "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"row_count": 2`)
}

func TestCLI_Load_Manifest(t *testing.T) {
	dataDB, metaDB, csvPath := testPaths(t)
	dir := filepath.Dir(csvPath)
	parksPath := filepath.Join(dir, "parks.csv")
	require.NoError(t, os.WriteFile(parksPath, []byte(parksCSV), 0o644))

	manifestPath := filepath.Join(dir, "datasets.yaml")
	manifestYAML := "datasets:\n" +
		"  - name: schools\n" +
		"    csv: " + csvPath + "\n" +
		"  - name: parks\n" +
		"    csv: " + parksPath + "\n" +
		"    name_column: PARK_NAME\n"
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifestYAML), 0o644))

	out, err := runCLI(t, "load", "--manifest", manifestPath, "--data-db", dataDB, "--meta-db", metaDB)
	require.NoError(t, err)
	assert.Contains(t, out, "schools")
	assert.Contains(t, out, "parks")

	out, err = runCLI(t, "loads", "--data-db", dataDB, "--meta-db", metaDB, "--output", "json")
	require.NoError(t, err)

	var listing struct {
		Loads []struct {
			Dataset string `json:"dataset"`
			Status  string `json:"status"`
		} `json:"loads"`
		TotalCount int64 `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	assert.EqualValues(t, 2, listing.TotalCount)
	require.Len(t, listing.Loads, 2)

	datasets := []string{listing.Loads[0].Dataset, listing.Loads[1].Dataset}
	assert.ElementsMatch(t, []string{"schools", "parks"}, datasets)
}

func TestCLI_Load_MissingCSV(t *testing.T) {
	dataDB, metaDB, _ := testPaths(t)

	_, err := runCLI(t, "load", "--csv", "/nonexistent/nope.csv", "--data-db", dataDB, "--meta-db", metaDB)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestCLI_Load_RequiresSource(t *testing.T) {
	_, err := runCLI(t, "load")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "either --csv or --manifest is required")
}

func TestCLI_Load_CSVAndManifestConflict(t *testing.T) {
	_, err := runCLI(t, "load", "--csv", "a.csv", "--manifest", "b.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestCLI_Status_MissingTable(t *testing.T) {
	dataDB, metaDB, _ := testPaths(t)

	_, err := runCLI(t, "status", "--data-db", dataDB, "--meta-db", metaDB)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schools")
}

func TestCLI_Loads_StatusFilter(t *testing.T) {
	dataDB, metaDB, csvPath := testPaths(t)

	_, err := runCLI(t, "load", "--csv", csvPath, "--data-db", dataDB, "--meta-db", metaDB)
	require.NoError(t, err)

	out, err := runCLI(t, "loads", "--status", "failed", "--data-db", dataDB, "--meta-db", metaDB, "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_count": 0`)

	out, err = runCLI(t, "loads", "--status", "succeeded", "--data-db", dataDB, "--meta-db", metaDB, "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_count": 1`)

	_, err = runCLI(t, "loads", "--status", "bogus", "--data-db", dataDB, "--meta-db", metaDB)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status")
}

func TestCLI_Describe(t *testing.T) {
	_, _, csvPath := testPaths(t)

	out, err := runCLI(t, "describe", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "COLUMN")
	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, "SCHOOL_NM")

	out, err = runCLI(t, "describe", csvPath, "--output", "json")
	require.NoError(t, err)

	var cols []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &cols))
	require.Len(t, cols, 6)
	for _, col := range cols {
		assert.NotEmpty(t, col.Name)
		assert.NotEmpty(t, col.Type)
	}
}

func TestCLI_Describe_MissingArg(t *testing.T) {
	_, err := runCLI(t, "describe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestCLI_EnvFallback(t *testing.T) {
	dataDB, metaDB, csvPath := testPaths(t)
	t.Setenv("DATA_DB_PATH", dataDB)
	t.Setenv("META_DB_PATH", metaDB)

	_, err := runCLI(t, "load", "--csv", csvPath)
	require.NoError(t, err)

	out, err := runCLI(t, "status", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"row_count": 3`)

	// Flags still win over the environment.
	otherData := filepath.Join(t.TempDir(), "other.duckdb")
	otherMeta := filepath.Join(t.TempDir(), "other.sqlite")
	_, err = runCLI(t, "status", "--data-db", otherData, "--meta-db", otherMeta)
	require.Error(t, err, "the flag-selected store is empty, so status must fail")
}

func TestCLI_OutputEnvFallback(t *testing.T) {
	t.Setenv("SCHOOLBOOK_OUTPUT", "json")

	out, err := runCLI(t, "version")
	require.NoError(t, err)

	var result map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Contains(t, result, "version")
}

func TestCLI_InvalidOutputFormat(t *testing.T) {
	_, err := runCLI(t, "-o", "xml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestCLI_CommandTree(t *testing.T) {
	rootCmd := newRootCmd()
	cmdNames := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdNames[cmd.Name()] = true
	}

	expectedCommands := []string{
		"load", "status", "loads", "describe", "version", "completion",
	}
	for _, name := range expectedCommands {
		t.Run(name, func(t *testing.T) {
			assert.True(t, cmdNames[name], "expected command %q to exist on root", name)
		})
	}
}

func TestCLI_VersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "schoolbook version "), "got %q", out)
}

func TestCLI_VersionCommand_JSONOutput(t *testing.T) {
	out, err := runCLI(t, "--output", "json", "version")
	require.NoError(t, err)

	var result map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &result), "version --output json should produce valid JSON: %s", out)
	assert.Contains(t, result, "version")
	assert.Contains(t, result, "commit")
}

func TestCLI_UnknownCommand(t *testing.T) {
	_, err := runCLI(t, "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}
