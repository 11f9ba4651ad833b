package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/models"
)

// resetFlags restores flag variables between runs; cobra only applies
// defaults when a flag is defined.
func resetFlags() {
	configPath = defaultConfigPath
	envFile = filepath.Join(os.TempDir(), "kotae-test-missing.env")
	debugFlag = false
	outputFormat = "text"
	serverURL = ""
	statusServerURL = ""
	chunksServerURL = ""
	chunksLimit = 10
	chunksFuzzy = false
	ingestReset = false
	ingestYes = false
	ingestGroup = ""
	resetYes = false
	serverIngest = false
	watchDebounce = 0
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// testConfig writes a config using offline providers and a small source tree.
func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(filepath.Join(docs, "loans"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(docs, "cards"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "loans", "home.txt"),
		[]byte("Home loan tenure is up to thirty five years."), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "cards", "credit.txt"),
		[]byte("Credit card annual fee is waived for the first year."), 0600))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  index_path: "./data/chunks.db"
  keyword_index_path: "./data/bleve"
  records_path: "./data/queries.db"
embedding:
  provider: mock
  dimensions: 16
llm:
  provider: mock
ingest:
  source_dir: "./docs"
  extensions: [".txt"]
`), 0600))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "kotae version dev\n", out)
}

func TestResetRequiresConfirmation(t *testing.T) {
	_, err := execute(t, "reset")
	assert.ErrorIs(t, err, errNotConfirmed)

	_, err = execute(t, "ingest", "--reset")
	assert.ErrorIs(t, err, errNotConfirmed)
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := execute(t, "--config", testConfig(t), "-o", "yaml", "status")
	assert.Error(t, err)
}

func TestJoinArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"tenure"}, "tenure"},
		{"multiple words", []string{"home", "loan", "tenure"}, "home loan tenure"},
		{"single quoted phrase", []string{"home loan tenure"}, "home loan tenure"},
		{"surrounding space", []string{"  home ", "loan  "}, "home  loan"},
		{"empty", []string{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, joinArgs(tt.args))
		})
	}
}

func TestLoadConfigFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 9123\n"), 0600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, resolved, err := loadConfig(defaultConfigPath)
	require.NoError(t, err)
	assert.Equal(t, 9123, cfg.Server.Port)
	assert.Equal(t, "config.yaml", filepath.Base(resolved))
}

func TestLoadConfigExplicitPath(t *testing.T) {
	path := testConfig(t)
	cfg, resolved, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "docs"), cfg.Ingest.SourceDir)
}

func TestIngestAskGet(t *testing.T) {
	cfg := testConfig(t)

	out, err := execute(t, "--config", cfg, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "cards")
	assert.Contains(t, out, "loans")
	assert.Contains(t, out, "Added 2 chunks across 2 groups")

	// A second run adds nothing.
	out, err = execute(t, "--config", cfg, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 0 chunks")

	out, err = execute(t, "--config", cfg, "-o", "json", "ask", "Home loan tenure is up to thirty five years.")
	require.NoError(t, err)
	var rec models.QueryRecord
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.True(t, rec.IsComplete)
	assert.Contains(t, rec.Sources, "loans/home.txt:0:0")
	require.NotNil(t, rec.AnswerText)

	out, err = execute(t, "--config", cfg, "get", rec.QueryID)
	require.NoError(t, err)
	assert.Contains(t, out, rec.QueryID)
	assert.Contains(t, out, "loans/home.txt:0:0")

	out, err = execute(t, "--config", cfg, "get", "00000000000000000000000000000000")
	require.NoError(t, err)
	assert.Contains(t, out, "Query not found.")

	out, err = execute(t, "--config", cfg, "chunks", "search", "tenure")
	require.NoError(t, err)
	assert.Contains(t, out, "loans/home.txt:0:0")

	out, err = execute(t, "--config", cfg, "-o", "json", "status")
	require.NoError(t, err)
	var status struct {
		Chunks  int `json:"chunks"`
		Queries int `json:"queries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, 2, status.Chunks)
	assert.Equal(t, 1, status.Queries)

	out, err = execute(t, "--config", cfg, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Chunk index cleared.")

	out, err = execute(t, "--config", cfg, "ingest", "--group", "loans")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 1 chunks across 1 groups")

	_, err = execute(t, "--config", cfg, "ingest", "--group", "../docs")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestAskEmptyQuestion(t *testing.T) {
	_, err := execute(t, "--config", testConfig(t), "ask", " ")
	assert.Error(t, err)
}
