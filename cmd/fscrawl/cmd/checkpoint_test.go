package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/fscrawl/internal/store"
)

func TestCheckpointCommandStructure(t *testing.T) {
	assert.Equal(t, "checkpoint", checkpointCmd.Use)
	assert.NotNil(t, checkpointCmd.RunE)
}

func TestRunCheckpointRequiresStatusFlag(t *testing.T) {
	original := checkpointStatus
	defer func() { checkpointStatus = original }()
	checkpointStatus = false

	err := runCheckpoint(checkpointCmd, nil)
	require.Error(t, err)
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
}

func TestRunCheckpointPrintsStatusJSON(t *testing.T) {
	originalStatus, originalOutdir, originalBasename := checkpointStatus, checkpointOutdir, checkpointBasename
	defer func() {
		checkpointStatus = originalStatus
		checkpointOutdir = originalOutdir
		checkpointBasename = originalBasename
	}()

	dir := t.TempDir()
	ctx := context.Background()
	st, err := store.OpenSQLite(ctx, filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Close(false))

	checkpointStatus = true
	checkpointOutdir = dir
	checkpointBasename = "test"

	var buf bytes.Buffer
	checkpointCmd.SetOut(&buf)
	require.NoError(t, runCheckpoint(checkpointCmd, nil))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "LastCompletedIteration")
}

func TestCheckpointIsAddedToRoot(t *testing.T) {
	found := false
	for _, c := range rootCmd.Commands() {
		if c.Name() == "checkpoint" {
			found = true
		}
	}
	assert.True(t, found)
}
