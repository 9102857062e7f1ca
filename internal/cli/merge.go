package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stillpoint/stillsync/internal/merge"
	"github.com/stillpoint/stillsync/internal/progress"
	"github.com/stillpoint/stillsync/internal/validate"
)

// MergeResult is the output payload of the merge command.
type MergeResult struct {
	Progress  progress.Progress       `json:"progress"`
	Conflicts []progress.SyncConflict `json:"conflicts"`
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <client.json> <server.json>",
		Short: "Merge two progress replicas into one converged aggregate",
		Long: `Merge two progress replica files into one converged aggregate.

Both files must contain a structurally valid progress aggregate. The merged
output and any conflict records are printed; inputs are never modified.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runMerge(opts *RootOptions, clientPath, serverPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	client, err := loadProgress(clientPath)
	if err != nil {
		formatter.Error(ErrCodeInvalidPayload, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load client replica", err)
	}
	server, err := loadProgress(serverPath)
	if err != nil {
		formatter.Error(ErrCodeInvalidPayload, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load server replica", err)
	}

	formatter.VerboseLog("merging %s (v%d) with %s (v%d)", clientPath, client.Version, serverPath, server.Version)

	merged, conflicts := merge.Merge(client, server)
	if conflicts == nil {
		conflicts = []progress.SyncConflict{}
	}

	return formatter.SuccessJSON(MergeResult{Progress: merged, Conflicts: conflicts})
}

// loadProgress reads and validates one replica file. Validation runs on the
// raw bytes before decoding, the same gate a remote payload passes through.
func loadProgress(path string) (progress.Progress, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return progress.Progress{}, fmt.Errorf("read %s: %w", path, err)
	}
	if !validate.Progress(data) {
		return progress.Progress{}, fmt.Errorf("%s is not a valid progress aggregate", path)
	}
	var p progress.Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return progress.Progress{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return p, nil
}
