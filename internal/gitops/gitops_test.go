package gitops

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	dir := t.TempDir()
	err := Init(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git directory should exist")
}

func TestIsRepo(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsRepo(dir), "empty dir should not be a repo")

	require.NoError(t, Init(dir))
	assert.True(t, IsRepo(dir), "initialized dir should be a repo")
}

func TestCommitAll(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "transactions.csv"), []byte("id,kind\n"), 0o644))

	hash, err := CommitAll(dir, "distribute: 2026-B001", "EquityFlow", "ledger@equityflow.dev")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	log := exec.Command("git", "log", "--format=%s", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "distribute: 2026-B001")

	authorLog := exec.Command("git", "log", "--format=%an <%ae>", "-1")
	authorLog.Dir = dir
	out, err = authorLog.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "EquityFlow <ledger@equityflow.dev>")
}

func TestRecord(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	rec := &Recorder{Dir: dir, AuthorName: "EquityFlow", AuthorEmail: "ledger@equityflow.dev"}

	// Nothing changed yet, so nothing to record.
	hash, err := rec.Record("empty")
	require.NoError(t, err)
	assert.Empty(t, hash)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.csv"), []byte("id,name\n"), 0o644))
	hash, err = rec.Record("payout: 2026-B002")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	// Recording again without changes is a no-op, not an error.
	hash, err = rec.Record("payout: 2026-B002")
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestRecord_SkipsOutsideRepo(t *testing.T) {
	rec := &Recorder{Dir: t.TempDir(), AuthorName: "EquityFlow", AuthorEmail: "ledger@equityflow.dev"}
	hash, err := rec.Record("anything")
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestRecord_Disabled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.csv"), []byte("id,name\n"), 0o644))

	rec := &Recorder{Dir: dir, Disabled: true}
	hash, err := rec.Record("should not happen")
	require.NoError(t, err)
	assert.Empty(t, hash)
}
