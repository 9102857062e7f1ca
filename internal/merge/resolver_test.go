package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_LastWriteWins_LaterClientWins(t *testing.T) {
	client := map[string]any{"id": "n1", "updated_at": "2026-02-02T08:00:00Z", "body": "client edit"}
	server := map[string]any{"id": "n1", "updated_at": "2026-02-01T08:00:00Z", "body": "server edit"}

	winner, conflict, err := Resolve(client, server, PolicyLastWriteWins)
	require.NoError(t, err)

	assert.Equal(t, "client edit", winner["body"])
	assert.Equal(t, "client", conflict.Winner)
	assert.Equal(t, string(PolicyLastWriteWins), conflict.Resolution)
	assert.Equal(t, "n1", conflict.ID)
	assert.NotEmpty(t, conflict.Reason)
}

func TestResolve_LastWriteWins_LaterServerWins(t *testing.T) {
	client := map[string]any{"id": "n1", "updated_at": "2026-02-01T08:00:00Z"}
	server := map[string]any{"id": "n1", "updated_at": "2026-02-03T08:00:00Z"}

	winner, conflict, err := Resolve(client, server, PolicyLastWriteWins)
	require.NoError(t, err)

	assert.Equal(t, server, winner)
	assert.Equal(t, "server", conflict.Winner)
}

func TestResolve_LastWriteWins_TieFavorsServer(t *testing.T) {
	at := "2026-02-01T08:00:00Z"
	client := map[string]any{"id": "n1", "updated_at": at, "body": "client"}
	server := map[string]any{"id": "n1", "updated_at": at, "body": "server"}

	winner, conflict, err := Resolve(client, server, PolicyLastWriteWins)
	require.NoError(t, err)

	assert.Equal(t, "server", winner["body"])
	assert.Equal(t, "server", conflict.Winner)
	assert.Equal(t, "server-wins", conflict.Resolution)
}

func TestResolve_MissingTimestampsAreTimeZero(t *testing.T) {
	// Neither record exposes a time field: both read as time zero, which is
	// a tie, which the server wins.
	client := map[string]any{"id": "n1", "body": "client"}
	server := map[string]any{"id": "n1", "body": "server"}

	winner, conflict, err := Resolve(client, server, PolicyLastWriteWins)
	require.NoError(t, err)

	assert.Equal(t, "server", winner["body"])
	assert.Equal(t, "server", conflict.Winner)
}

func TestResolve_TimestampFallbackField(t *testing.T) {
	// "timestamp" is honored when "updated_at" is absent.
	client := map[string]any{"id": "s1", "timestamp": "2026-02-05T08:00:00Z"}
	server := map[string]any{"id": "s1", "timestamp": "2026-02-01T08:00:00Z"}

	_, conflict, err := Resolve(client, server, PolicyLastWriteWins)
	require.NoError(t, err)
	assert.Equal(t, "client", conflict.Winner)
}

func TestResolve_UnixMillisTimestamps(t *testing.T) {
	client := map[string]any{"id": "s1", "updated_at": float64(1750000000000)}
	server := map[string]any{"id": "s1", "updated_at": float64(1740000000000)}

	_, conflict, err := Resolve(client, server, PolicyLastWriteWins)
	require.NoError(t, err)
	assert.Equal(t, "client", conflict.Winner)
}

func TestResolve_ClientWinsIgnoresTimestamps(t *testing.T) {
	client := map[string]any{"id": "n1", "updated_at": "2026-01-01T00:00:00Z"}
	server := map[string]any{"id": "n1", "updated_at": "2026-02-01T00:00:00Z"}

	winner, conflict, err := Resolve(client, server, PolicyClientWins)
	require.NoError(t, err)

	assert.Equal(t, client, winner)
	assert.Equal(t, "client", conflict.Winner)
}

func TestResolve_ServerWinsIgnoresTimestamps(t *testing.T) {
	client := map[string]any{"id": "n1", "updated_at": "2026-02-01T00:00:00Z"}
	server := map[string]any{"id": "n1", "updated_at": "2026-01-01T00:00:00Z"}

	winner, conflict, err := Resolve(client, server, PolicyServerWins)
	require.NoError(t, err)

	assert.Equal(t, server, winner)
	assert.Equal(t, "server", conflict.Winner)
}

func TestResolve_MergeClientFieldsTakePrecedence(t *testing.T) {
	client := map[string]any{"id": "n1", "title": "client title"}
	server := map[string]any{"id": "n1", "title": "server title", "tags": "calm"}

	winner, conflict, err := Resolve(client, server, PolicyMerge)
	require.NoError(t, err)

	assert.Equal(t, "client title", winner["title"], "client precedence on shared fields")
	assert.Equal(t, "calm", winner["tags"], "server-only fields survive")
	assert.Equal(t, "merged", conflict.Winner)

	// Inputs must never be mutated.
	assert.NotContains(t, client, "tags")
	assert.Equal(t, "server title", server["title"])
}

func TestResolve_UnknownPolicy(t *testing.T) {
	_, _, err := Resolve(map[string]any{}, map[string]any{}, Policy("coin-flip"))
	assert.Error(t, err)
}

func TestResolve_ConflictCapturesBothInputs(t *testing.T) {
	client := map[string]any{"id": "n1", "v": "a"}
	server := map[string]any{"id": "n1", "v": "b"}

	_, conflict, err := Resolve(client, server, PolicyServerWins)
	require.NoError(t, err)

	assert.Equal(t, client, conflict.Client)
	assert.Equal(t, server, conflict.Server)
}

func TestParsePolicy(t *testing.T) {
	for _, valid := range []string{"last-write-wins", "client-wins", "server-wins", "merge"} {
		p, err := ParsePolicy(valid)
		require.NoError(t, err)
		assert.Equal(t, Policy(valid), p)
	}

	_, err := ParsePolicy("newest")
	assert.Error(t, err)
}
