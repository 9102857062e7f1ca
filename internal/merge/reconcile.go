package merge

import (
	"reflect"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/stillpoint/stillsync/internal/progress"
)

// Reconcile runs a full sync pass: it folds the request's client data into
// one client-side replica, merges it against the server-side replica, and
// builds the response envelope with conflicts and summary counts.
//
// There is no partial success: callers validate the envelope before calling
// Reconcile, and an accepted envelope always yields a converged result.
// Individually malformed items inside it are excluded during dedup.
func Reconcile(req progress.SyncRequest, server progress.Progress) progress.SyncResponse {
	return ReconcileAt(req, server, time.Now().UTC())
}

// ReconcileAt is Reconcile with an explicit merge time, for deterministic
// tests.
func ReconcileAt(req progress.SyncRequest, server progress.Progress, now time.Time) progress.SyncResponse {
	client := req.Data.Progress
	client.Sessions = concat(client.Sessions, req.Data.Sessions)
	client.Assessments = concat(client.Assessments, req.Data.Assessments)
	client.Badges = concat(client.Badges, req.Data.Badges)

	merged, conflicts := MergeAt(client, server, now)

	return progress.SyncResponse{
		Progress:  merged,
		Conflicts: conflicts,
		Summary:   summarize(server, merged),
		SyncedAt:  now,
	}
}

// summarize counts what the converged aggregate contributed relative to the
// server replica: sessions added or corrected, assessments and badges added.
func summarize(server, merged progress.Progress) progress.SyncSummary {
	var s progress.SyncSummary

	serverSessions := make(map[string]progress.Session, len(server.Sessions))
	for _, sess := range server.Sessions {
		if sess.ID != "" {
			serverSessions[sess.ID] = sess
		}
	}
	for _, sess := range merged.Sessions {
		prev, ok := serverSessions[sess.ID]
		switch {
		case !ok:
			s.SessionsAdded++
		case !reflect.DeepEqual(prev, sess):
			s.SessionsUpdated++
		}
	}

	serverAssessments := make(map[string]struct{}, len(server.Assessments))
	for _, a := range server.Assessments {
		if a.ID != "" {
			serverAssessments[a.ID] = struct{}{}
		}
	}
	for _, a := range merged.Assessments {
		if _, ok := serverAssessments[a.ID]; !ok {
			s.AssessmentsAdded++
		}
	}

	serverBadges := make(map[string]struct{}, len(server.Badges))
	for _, b := range server.Badges {
		if key := norm.NFC.String(b.Key); key != "" {
			serverBadges[key] = struct{}{}
		}
	}
	for _, b := range merged.Badges {
		if _, ok := serverBadges[norm.NFC.String(b.Key)]; !ok {
			s.BadgesAdded++
		}
	}

	return s
}

// concat appends b to a copy of a, leaving both inputs untouched.
func concat[T any](a, b []T) []T {
	if len(b) == 0 {
		return a
	}
	out := make([]T, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}
