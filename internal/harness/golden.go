package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/stillpoint/stillsync/internal/progress"
)

// Snapshot captures the full converged output for golden comparison.
type Snapshot struct {
	ScenarioName string                  `json:"scenario_name"`
	Merged       progress.Progress       `json:"merged"`
	Conflicts    []progress.SyncConflict `json:"conflicts"`
}

// RunWithGolden executes a scenario and compares the converged output
// against a golden file under testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *Scenario) error {
	t.Helper()

	result, err := Run(sc)
	if err != nil {
		return err
	}

	snapshot := Snapshot{
		ScenarioName: sc.Name,
		Merged:       result.Merged,
		Conflicts:    result.Conflicts,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, data)

	return nil
}
