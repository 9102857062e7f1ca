package merge

import (
	"encoding/json"
	"reflect"
	"sort"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/stillpoint/stillsync/internal/progress"
)

// Merge reconciles two Progress replicas into one converged aggregate,
// stamping the result with the current time. Either replica may be "ahead";
// the inputs are symmetric and are never mutated.
//
// The returned conflicts record the ambiguous single-item cases that were
// routed through the resolver. They are audit output only.
func Merge(client, server progress.Progress) (progress.Progress, []progress.SyncConflict) {
	return MergeAt(client, server, time.Now().UTC())
}

// MergeAt is Merge with an explicit merge time, for deterministic tests.
func MergeAt(client, server progress.Progress, now time.Time) (progress.Progress, []progress.SyncConflict) {
	merged := progress.Progress{
		Version:       max(client.Version, server.Version),
		CreatedAt:     earliest(client.CreatedAt, server.CreatedAt),
		LastUpdated:   now,
		TotalSessions: max(client.TotalSessions, server.TotalSessions),
		TotalMinutes:  max(client.TotalMinutes, server.TotalMinutes),
		TotalBreaths:  max(client.TotalBreaths, server.TotalBreaths),
		CurrentStreak: max(client.CurrentStreak, server.CurrentStreak),
		LongestStreak: max(client.LongestStreak, server.LongestStreak),
		LastActiveDay: laterDay(client.LastActiveDay, server.LastActiveDay),
	}

	var conflicts []progress.SyncConflict
	merged.Sessions, conflicts = mergeSessions(client.Sessions, server.Sessions)
	merged.Assessments = mergeAssessments(client.Assessments, server.Assessments)
	merged.Badges = mergeBadges(client.Badges, server.Badges)

	return merged, conflicts
}

// mergeSessions deduplicates by ID. A same-ID session with a later timestamp
// is a correction and replaces silently. Equal timestamps with diverging
// content are the one genuinely ambiguous case: they go through the resolver
// (last-write-wins, server-favored tie) and are recorded as conflicts.
func mergeSessions(client, server []progress.Session) ([]progress.Session, []progress.SyncConflict) {
	var conflicts []progress.SyncConflict

	byID := make(map[string]progress.Session, len(client)+len(server))
	for _, s := range client {
		if s.ID == "" {
			continue
		}
		byID[s.ID] = s
	}
	for _, s := range server {
		if s.ID == "" {
			continue
		}
		prev, seen := byID[s.ID]
		if !seen {
			byID[s.ID] = s
			continue
		}
		switch {
		case s.Timestamp.After(prev.Timestamp):
			byID[s.ID] = s
		case s.Timestamp.Before(prev.Timestamp):
			// Keep the later client copy.
		case !reflect.DeepEqual(prev, s):
			_, conflict, err := Resolve(asRecord(prev), asRecord(s), PolicyLastWriteWins)
			if err != nil {
				break
			}
			conflict.Entity = "session"
			conflict.ID = s.ID
			conflicts = append(conflicts, conflict)
			if conflict.Winner == "server" {
				byID[s.ID] = s
			}
		}
	}

	out := make([]progress.Session, 0, len(byID))
	for _, s := range byID {
		out = append(out, s)
	}
	// Most recent first; ID breaks ties so output order is deterministic.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, conflicts
}

// mergeAssessments deduplicates by ID, first seen wins: assessments are
// append-only historical facts and a same-ID duplicate never replaces an
// existing result.
func mergeAssessments(client, server []progress.Assessment) []progress.Assessment {
	byID := make(map[string]progress.Assessment, len(client)+len(server))
	for _, a := range client {
		if a.ID == "" {
			continue
		}
		byID[a.ID] = a
	}
	for _, a := range server {
		if a.ID == "" {
			continue
		}
		if _, seen := byID[a.ID]; !seen {
			byID[a.ID] = a
		}
	}

	out := make([]progress.Assessment, 0, len(byID))
	for _, a := range byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// mergeBadges deduplicates by the badge key (not an instance identifier),
// keeping the earliest unlock: the achievement happened once. Keys are
// NFC-normalized before comparison so differently composed Unicode keys
// collapse to one badge.
func mergeBadges(client, server []progress.Badge) []progress.Badge {
	byKey := make(map[string]progress.Badge, len(client)+len(server))
	for _, b := range append(append([]progress.Badge{}, client...), server...) {
		key := norm.NFC.String(b.Key)
		if key == "" {
			continue
		}
		prev, seen := byKey[key]
		if !seen {
			byKey[key] = b
			continue
		}
		if b.UnlockedAt.Before(prev.UnlockedAt) {
			byKey[key] = b
		}
	}

	out := make([]progress.Badge, 0, len(byKey))
	for _, b := range byKey {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UnlockedAt.Equal(out[j].UnlockedAt) {
			return out[i].UnlockedAt.Before(out[j].UnlockedAt)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// asRecord converts a typed item to the flat record form the resolver
// operates on.
func asRecord(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil
	}
	return record
}

// earliest returns the earlier of two times, ignoring zero values.
func earliest(a, b time.Time) time.Time {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if b.Before(a) {
		return b
	}
	return a
}

// laterDay returns the later of two ISO day markers ("2026-08-28").
// Lexicographic comparison is chronological for this format; empty loses.
func laterDay(a, b string) string {
	if b > a {
		return b
	}
	return a
}
