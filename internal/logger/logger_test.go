package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesJSON(t *testing.T) {
	dir := t.TempDir()

	cleanup, err := Setup(Config{Dir: dir, Debug: true})
	require.NoError(t, err)

	L().Debug("job.started", "job_id", "abc")
	path := Path()
	require.NoError(t, cleanup())
	assert.Equal(t, "", Path())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	assert.Equal(t, "job.started", entry["msg"])
	assert.Equal(t, "abc", entry["job_id"])
	assert.Contains(t, entry, "source")
}

func TestNewInfoLevelDropsDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)

	l.Debug("hidden")
	l.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
