package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillpoint/stillsync/internal/queue"
)

// writeConfig points the queue commands at a throwaway store so tests never
// touch the default database in the working directory.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	store := filepath.Join(dir, "queue.db")
	return writePayload(t, "config.yaml", fmt.Sprintf(
		"store_path: %s\nnamespace: test\nretry_ceiling: 3\ndefault_policy: last-write-wins\n", store))
}

func TestQueueCommand_AddThenList(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "--format", "json", "--config", cfg, "queue", "add",
		"--kind", "session", `{"id": "s1", "timestamp": "2026-02-01T08:00:00Z", "minutes": 10, "breaths": 40}`)
	require.NoError(t, err)

	var addResp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &addResp))
	assert.Equal(t, "ok", addResp.Status)

	out, err = execute(t, "--format", "json", "--config", cfg, "queue", "list")
	require.NoError(t, err)

	var listResp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &listResp))

	data, err := json.Marshal(listResp.Data)
	require.NoError(t, err)
	var items []queue.Item
	require.NoError(t, json.Unmarshal(data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, queue.KindSession, items[0].Kind)
	assert.NotEmpty(t, items[0].ID)
}

func TestQueueCommand_RemoveAndClear(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "--format", "json", "--config", cfg, "queue", "add", `{"id": "s1"}`)
	require.NoError(t, err)

	var addResp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &addResp))
	data, err := json.Marshal(addResp.Data)
	require.NoError(t, err)
	var item queue.Item
	require.NoError(t, json.Unmarshal(data, &item))

	_, err = execute(t, "--config", cfg, "queue", "remove", item.ID)
	require.NoError(t, err)

	// Removing again is a no-op, not an error.
	_, err = execute(t, "--config", cfg, "queue", "remove", item.ID)
	require.NoError(t, err)

	_, err = execute(t, "--config", cfg, "queue", "clear")
	assert.NoError(t, err)
}

func TestQueueCommand_RetryUnknownID(t *testing.T) {
	cfg := writeConfig(t)

	_, err := execute(t, "--config", cfg, "queue", "retry", "no-such-id")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestQueueCommand_AddRejectsMalformedJSON(t *testing.T) {
	cfg := writeConfig(t)

	_, err := execute(t, "--config", cfg, "queue", "add", `{"id": `)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
