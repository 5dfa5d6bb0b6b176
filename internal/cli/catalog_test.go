package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AutoScheduleJS/queries-fn/internal/query"
	"github.com/AutoScheduleJS/queries-fn/internal/store"
)

func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "catalog.db")
}

func saveQueries(t *testing.T, db string, args ...string) SaveResult {
	t.Helper()
	path := writeFile(t, "q.json", twoQueriesJSON)
	out, err := runCLI(t, append([]string{"--db", db, "--format", "json", "save", path}, args...)...)
	require.NoError(t, err)

	var result SaveResult
	decodeEnvelope(t, out, &result)
	return result
}

func TestSaveCommand(t *testing.T) {
	db := testDB(t)

	first := saveQueries(t, db, "--batch", "import-1")
	assert.Equal(t, "import-1", first.BatchID)
	assert.Equal(t, 2, first.Inserted)
	require.Len(t, first.Saved, 2)

	second := saveQueries(t, db)
	assert.Equal(t, 0, second.Inserted, "saving equal queries again is a no-op")
	assert.NotEqual(t, "import-1", second.BatchID)
	assert.Equal(t, first.Saved[0].Hash, second.Saved[0].Hash)
}

func TestSaveCommand_RequiresDatabase(t *testing.T) {
	path := writeFile(t, "q.json", twoQueriesJSON)

	out, err := runCLI(t, "--db", "", "save", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "no database")
}

func TestShowCommand(t *testing.T) {
	db := testDB(t)
	saved := saveQueries(t, db)

	out, err := runCLI(t, "--db", db, "show", saved.Saved[1].Hash)
	require.NoError(t, err)
	assert.Contains(t, out, `"goal":{`)
	assert.Contains(t, out, `"name":"b"`)

	out, err = runCLI(t, "--db", db, "--format", "json", "show", saved.Saved[1].Hash)
	require.NoError(t, err)
	var shown QueryOutput
	decodeEnvelope(t, out, &shown)
	assert.Equal(t, saved.Saved[1].Hash, shown.Hash)
	assert.Equal(t, query.VariantGoal, shown.Variant)
	assert.Contains(t, shown.Canonical, `"name":"b"`)
}

func TestShowCommand_NotFound(t *testing.T) {
	db := testDB(t)
	saveQueries(t, db)

	out, err := runCLI(t, "--db", db, "show", strings.Repeat("0", 64))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestListCommand(t *testing.T) {
	db := testDB(t)

	out, err := runCLI(t, "--db", db, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No queries stored.")

	saved := saveQueries(t, db, "--batch", "b1")

	out, err = runCLI(t, "--db", db, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "SEQ"))
	assert.Contains(t, lines[1], saved.Saved[0].Hash[:12])
	assert.Contains(t, lines[2], "goal")

	out, err = runCLI(t, "--db", db, "--format", "json", "list", "--query-id", "2")
	require.NoError(t, err)
	var byID []store.Summary
	decodeEnvelope(t, out, &byID)
	require.Len(t, byID, 1)
	assert.Equal(t, "b", byID[0].Name)

	out, err = runCLI(t, "--db", db, "--format", "json", "list", "--batch", "other")
	require.NoError(t, err)
	var byBatch []store.Summary
	decodeEnvelope(t, out, &byBatch)
	assert.Empty(t, byBatch)
}

func TestListCommand_ExclusiveFilters(t *testing.T) {
	_, err := runCLI(t, "--db", testDB(t), "list", "--query-id", "1", "--batch", "b1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerifyCommand(t *testing.T) {
	db := testDB(t)
	saved := saveQueries(t, db)

	out, err := runCLI(t, "--db", db, "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 2 stored query(s) verified")

	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().ExecContext(context.Background(),
		`UPDATE queries SET body = ? WHERE hash = ?`,
		`{"id":1,"name":"renamed","position":{"duration":{"target":2}}}`, saved.Saved[0].Hash)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err = runCLI(t, "--db", db, "verify")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ "+saved.Saved[0].Hash+": now hashes to")
	assert.Contains(t, out, "1 of 2 stored query(s) drifted")
}
