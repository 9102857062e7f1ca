package harness

import (
	"fmt"
	"slices"

	"github.com/stillpoint/stillsync/internal/merge"
	"github.com/stillpoint/stillsync/internal/progress"
)

// Result holds the outcome of running one scenario.
type Result struct {
	Merged    progress.Progress
	Conflicts []progress.SyncConflict
}

// Run reconciles the scenario's two replicas at the scenario's merge time.
func Run(sc *Scenario) (*Result, error) {
	client, err := decodeReplica(sc.Client)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: client: %w", sc.Name, err)
	}
	server, err := decodeReplica(sc.Server)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: server: %w", sc.Name, err)
	}

	merged, conflicts := merge.MergeAt(client, server, sc.MergedAt.UTC())
	if conflicts == nil {
		conflicts = []progress.SyncConflict{}
	}
	return &Result{Merged: merged, Conflicts: conflicts}, nil
}

// Check compares the result against the scenario's expectations and returns
// one error per failed check. A scenario without expectations always passes
// (its golden file still guards the full output).
func Check(sc *Scenario, res *Result) []error {
	if sc.Expect == nil {
		return nil
	}

	var errs []error
	e := sc.Expect

	if e.Version != nil && res.Merged.Version != *e.Version {
		errs = append(errs, fmt.Errorf("version = %d, expected %d", res.Merged.Version, *e.Version))
	}
	if e.TotalSessions != nil && res.Merged.TotalSessions != *e.TotalSessions {
		errs = append(errs, fmt.Errorf("total_sessions = %d, expected %d", res.Merged.TotalSessions, *e.TotalSessions))
	}
	if e.TotalMinutes != nil && res.Merged.TotalMinutes != *e.TotalMinutes {
		errs = append(errs, fmt.Errorf("total_minutes = %d, expected %d", res.Merged.TotalMinutes, *e.TotalMinutes))
	}
	if e.SessionIDs != nil {
		ids := make([]string, len(res.Merged.Sessions))
		for i, s := range res.Merged.Sessions {
			ids[i] = s.ID
		}
		if !slices.Equal(ids, e.SessionIDs) {
			errs = append(errs, fmt.Errorf("session ids = %v, expected %v", ids, e.SessionIDs))
		}
	}
	if e.BadgeKeys != nil {
		keys := make([]string, len(res.Merged.Badges))
		for i, b := range res.Merged.Badges {
			keys[i] = b.Key
		}
		if !slices.Equal(keys, e.BadgeKeys) {
			errs = append(errs, fmt.Errorf("badge keys = %v, expected %v", keys, e.BadgeKeys))
		}
	}
	if e.Conflicts != nil && len(res.Conflicts) != *e.Conflicts {
		errs = append(errs, fmt.Errorf("conflicts = %d, expected %d", len(res.Conflicts), *e.Conflicts))
	}

	return errs
}
