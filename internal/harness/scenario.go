// Package harness runs YAML-defined merge scenarios: two replicas, a fixed
// merge time, and expectations about the converged output. Scenarios double
// as golden tests - the full converged aggregate is snapshotted and compared
// against fixture files.
package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stillpoint/stillsync/internal/progress"
)

// Scenario defines one merge test case.
//
// Client and Server are expressed as loose maps so scenario files read like
// the JSON payloads the core actually receives; they are decoded into
// Progress through the same JSON path production data takes.
type Scenario struct {
	// Name uniquely identifies this scenario; it names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// MergedAt is the fixed merge time, for deterministic output.
	MergedAt time.Time `yaml:"merged_at"`

	// Client and Server are the two replicas to reconcile.
	Client map[string]any `yaml:"client"`
	Server map[string]any `yaml:"server"`

	// Expect holds optional assertions on the converged output.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect lists checks applied to the converged aggregate. Nil fields are
// not checked.
type Expect struct {
	Version       *int64   `yaml:"version,omitempty"`
	TotalSessions *int     `yaml:"total_sessions,omitempty"`
	TotalMinutes  *int     `yaml:"total_minutes,omitempty"`
	SessionIDs    []string `yaml:"session_ids,omitempty"` // Exact output order
	BadgeKeys     []string `yaml:"badge_keys,omitempty"`  // Exact output order
	Conflicts     *int     `yaml:"conflicts,omitempty"`
}

// LoadScenario reads and decodes one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if sc.MergedAt.IsZero() {
		return nil, fmt.Errorf("scenario %s: merged_at is required for deterministic output", path)
	}
	return &sc, nil
}

// LoadDir loads every *.yaml scenario under dir, sorted by filename.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("scan scenarios: %w", err)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		sc, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// decodeReplica converts a scenario's loose replica map into a Progress
// through the JSON path, so scenario data is subject to the same decoding
// rules as production payloads.
func decodeReplica(m map[string]any) (progress.Progress, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return progress.Progress{}, fmt.Errorf("encode replica: %w", err)
	}
	var p progress.Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return progress.Progress{}, fmt.Errorf("decode replica: %w", err)
	}
	return p, nil
}
