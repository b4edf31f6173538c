package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		if current != nil {
			current.Close()
			current = nil
		}
		cfgFile = ""
	})

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`log_config:
  log_level: error
storage_config:
  sqlite_db_path: %s
  download_dir: %s
  preview_dir: %s
  parquet_base_path: %s
`,
		filepath.Join(dir, "db", "mediascout.db"),
		filepath.Join(dir, "downloads"),
		filepath.Join(dir, "previews"),
		filepath.Join(dir, "exports"),
	)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"analyze", "runs", "show", "download", "bundle", "export"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
	assert.NotNil(t, root.PersistentFlags().ShorthandLookup("c"))
}

func TestAnalyze_RequiresURL(t *testing.T) {
	_, err := runCLI(t, "analyze")
	assert.Error(t, err)
}

func TestDownload_RejectsNonNumericID(t *testing.T) {
	_, err := runCLI(t, "download", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be an integer")
	assert.Nil(t, current)
}

func TestRuns_Empty(t *testing.T) {
	out, err := runCLI(t, "--config", writeTestConfig(t), "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs yet.")
}

func TestShow_UnknownRun(t *testing.T) {
	_, err := runCLI(t, "-c", writeTestConfig(t), "show", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
