package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Harbor Builders")
	cfg.Store.Ref = "postgres://ledger:secret@db/harbor"
	cfg.Equity.Categories = append(cfg.Equity.Categories, "Partner Draw")

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Business.Name, got.Business.Name)
	assert.Equal(t, cfg.Business.Currency, got.Business.Currency)
	assert.Equal(t, cfg.Store.Ref, got.Store.Ref)
	assert.Equal(t, cfg.Equity.Categories, got.Equity.Categories)
	assert.Equal(t, cfg.Equity.DivestmentMarkers, got.Equity.DivestmentMarkers)
	assert.Equal(t, cfg.Service.Listen, got.Service.Listen)
	assert.Equal(t, cfg.Git.AutoCommit, got.Git.AutoCommit)
	assert.Equal(t, cfg.Git.AuthorName, got.Git.AuthorName)
	assert.Equal(t, cfg.Git.AuthorEmail, got.Git.AuthorEmail)
}

func TestDefaults(t *testing.T) {
	cfg := Default("Harbor Builders")

	assert.Equal(t, "Harbor Builders", cfg.Business.Name)
	assert.Equal(t, "USD", cfg.Business.Currency)
	assert.Equal(t, "file:books", cfg.Store.Ref)
	assert.Equal(t, "Internal Clearing", cfg.Equity.Clearing)
	assert.Contains(t, cfg.Equity.Categories, "Owner Equity")
	assert.Contains(t, cfg.Equity.Categories, "Profit Share")
	assert.Contains(t, cfg.Equity.DivestmentMarkers, "Equity Move out")
	assert.Equal(t, ":8373", cfg.Service.Listen)
	assert.True(t, cfg.Git.AutoCommit)
	assert.Equal(t, "EquityFlow", cfg.Git.AuthorName)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default("Harbor Builders")
	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Harbor Builders")
	assert.Contains(t, contents, "ref: file:books")
	assert.Contains(t, contents, "- Owner Equity")
	assert.Contains(t, contents, "auto_commit: true")
}
