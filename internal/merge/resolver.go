package merge

import (
	"fmt"
	"time"

	"github.com/stillpoint/stillsync/internal/progress"
)

// Policy selects how Resolve picks a winner between two versions of one
// logical item.
type Policy string

const (
	// PolicyLastWriteWins compares timestamps; the strictly later item wins.
	// Ties favor the server item: the server is the single converged source
	// of truth across all devices, so a consistent server-favored tie-break
	// keeps every device converging to the same record.
	PolicyLastWriteWins Policy = "last-write-wins"

	// PolicyClientWins picks the client item unconditionally.
	PolicyClientWins Policy = "client-wins"

	// PolicyServerWins picks the server item unconditionally.
	PolicyServerWins Policy = "server-wins"

	// PolicyMerge shallow-merges fields with client precedence for any field
	// present on both. Suitable only for flat records where field-level
	// overwrite is acceptable.
	PolicyMerge Policy = "merge"
)

// ParsePolicy converts a string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyLastWriteWins, PolicyClientWins, PolicyServerWins, PolicyMerge:
		return p, nil
	default:
		return "", fmt.Errorf("unknown resolution policy %q", s)
	}
}

// Resolve reconciles two versions of one logical item under the given
// policy, returning the winning item and an audit record capturing both
// inputs, the chosen resolution, and a human-readable reason.
//
// Items are flat records; their modification time is read from an
// "updated_at" field, falling back to "timestamp", and treated as time zero
// when absent or unparseable. Resolve never mutates its inputs: the merge
// policy builds a fresh record.
func Resolve(client, server map[string]any, policy Policy) (map[string]any, progress.SyncConflict, error) {
	conflict := progress.SyncConflict{
		ID:         recordID(client, server),
		Client:     client,
		Server:     server,
		Resolution: string(policy),
	}

	switch policy {
	case PolicyClientWins:
		conflict.Winner = "client"
		conflict.Reason = "policy trusts the client unconditionally"
		return client, conflict, nil

	case PolicyServerWins:
		conflict.Winner = "server"
		conflict.Reason = "policy trusts the server unconditionally"
		return server, conflict, nil

	case PolicyMerge:
		merged := make(map[string]any, len(client)+len(server))
		for k, v := range server {
			merged[k] = v
		}
		for k, v := range client {
			merged[k] = v
		}
		conflict.Winner = "merged"
		conflict.Reason = "shallow field merge, client fields take precedence"
		return merged, conflict, nil

	case PolicyLastWriteWins:
		clientAt := recordTime(client)
		serverAt := recordTime(server)
		if clientAt.After(serverAt) {
			conflict.Winner = "client"
			conflict.Reason = fmt.Sprintf("client modified at %s, after server at %s",
				clientAt.UTC().Format(time.RFC3339), serverAt.UTC().Format(time.RFC3339))
			return client, conflict, nil
		}
		conflict.Winner = "server"
		if serverAt.After(clientAt) {
			conflict.Reason = fmt.Sprintf("server modified at %s, after client at %s",
				serverAt.UTC().Format(time.RFC3339), clientAt.UTC().Format(time.RFC3339))
		} else {
			// Equal timestamps: documented server-favored tie-break.
			conflict.Resolution = string(PolicyServerWins)
			conflict.Reason = "timestamps equal, tie favors the server record"
		}
		return server, conflict, nil

	default:
		return nil, progress.SyncConflict{}, fmt.Errorf("unknown resolution policy %q", policy)
	}
}

// recordID extracts the item identifier from either record, client first.
func recordID(client, server map[string]any) string {
	for _, record := range []map[string]any{client, server} {
		if id, ok := record["id"].(string); ok && id != "" {
			return id
		}
	}
	return ""
}

// recordTime reads a record's modification time from "updated_at", falling
// back to "timestamp". Accepts RFC 3339 strings, Unix milliseconds (JSON
// numbers), and time.Time values; anything else is time zero.
func recordTime(record map[string]any) time.Time {
	for _, field := range []string{"updated_at", "timestamp"} {
		v, ok := record[field]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			if parsed, err := time.Parse(time.RFC3339, t); err == nil {
				return parsed
			}
		case float64:
			return time.UnixMilli(int64(t)).UTC()
		case int64:
			return time.UnixMilli(t).UTC()
		case time.Time:
			return t
		}
	}
	return time.Time{}
}
