package progress

import "time"

// Session records one completed practice activity.
//
// Immutable once created. A Session with the same ID and a newer timestamp
// is a correction that supersedes the original, not an edit of it.
type Session struct {
	ID        string    `json:"id"`        // Opaque, client-generated, globally unique
	Timestamp time.Time `json:"timestamp"` // When the session occurred
	Technique string    `json:"technique,omitempty"`
	Category  string    `json:"category,omitempty"`
	Minutes   int       `json:"minutes"`
	Breaths   int       `json:"breaths"`
}

// Assessment records one completed evaluation.
//
// Same immutability contract as Session, but assessments are append-only
// historical facts: a same-ID duplicate never replaces an existing result.
type Assessment struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Type      string             `json:"type"`
	Level     string             `json:"level,omitempty"`     // Derived placement label
	Placement string             `json:"placement,omitempty"` // Derived placement label
	Scores    map[string]float64 `json:"scores,omitempty"`    // Named numeric sub-scores
}

// Badge records an unlocked achievement.
//
// Badges are deduplicated by Key, not by an instance identifier. At most one
// Badge per key exists in a converged aggregate; when both replicas unlocked
// the same badge, the earlier UnlockedAt is the fact of record.
type Badge struct {
	Key        string    `json:"key"` // Stable achievement key, e.g. "first-session"
	Name       string    `json:"name,omitempty"`
	Icon       string    `json:"icon,omitempty"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// Progress is the aggregate owned by one logical user/device pairing.
//
// Version is a scalar high-water mark, not a vector clock. The numeric
// totals are running counters that may legitimately exceed what the retained
// collections imply (old items can be pruned for storage economy), but they
// must never decrease.
type Progress struct {
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdated   time.Time `json:"last_updated"`
	TotalSessions int       `json:"total_sessions"`
	TotalMinutes  int       `json:"total_minutes"`
	TotalBreaths  int       `json:"total_breaths"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"` // Running maximum, never approximated
	LastActiveDay string    `json:"last_active_day,omitempty"` // ISO day, e.g. "2026-08-28"

	Sessions    []Session    `json:"sessions"`
	Assessments []Assessment `json:"assessments"`
	Badges      []Badge      `json:"badges"`
}

// SyncConflict is an audit record describing one resolved ambiguity.
//
// Conflicts are output, never input: they exist for transparency and
// debugging and do not feed back into merge logic.
type SyncConflict struct {
	Entity     string `json:"entity"` // "session", "assessment", "badge", or "" for ad-hoc records
	ID         string `json:"id"`
	Client     any    `json:"client"` // The client-side contender, as received
	Server     any    `json:"server"` // The server-side contender, as received
	Winner     string `json:"winner"` // "client", "server", or "merged"
	Resolution string `json:"resolution"`
	Reason     string `json:"reason"`
}

// ClientData carries the device-side replica inside a SyncRequest.
//
// Sessions/Assessments/Badges may duplicate entries already present in
// Progress; the merge engine deduplicates, so senders need not.
type ClientData struct {
	Progress    Progress     `json:"progress"`
	Sessions    []Session    `json:"sessions,omitempty"`
	Assessments []Assessment `json:"assessments,omitempty"`
	Badges      []Badge      `json:"badges,omitempty"`
}

// SyncRequest is the envelope a device sends when reconciling with the
// remote replica.
type SyncRequest struct {
	DeviceID     string     `json:"device_id"`
	IsGuest      bool       `json:"is_guest"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	Data         ClientData `json:"data"`
}

// SyncSummary counts what reconciliation contributed relative to the
// server-side replica.
type SyncSummary struct {
	SessionsAdded    int `json:"sessions_added"`
	SessionsUpdated  int `json:"sessions_updated"`
	AssessmentsAdded int `json:"assessments_added"`
	BadgesAdded      int `json:"badges_added"`
}

// SyncResponse is the envelope returned after reconciliation: the converged
// aggregate both sides adopt, plus conflict records for transparency.
type SyncResponse struct {
	Progress  Progress       `json:"progress"`
	Conflicts []SyncConflict `json:"conflicts,omitempty"`
	Summary   SyncSummary    `json:"summary"`
	SyncedAt  time.Time      `json:"synced_at"`
}
