package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stillpoint/stillsync/internal/config"
	"github.com/stillpoint/stillsync/internal/merge"
	"github.com/stillpoint/stillsync/internal/progress"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Policy string
}

// ResolveResult is the output payload of the resolve command.
type ResolveResult struct {
	Winner   map[string]any        `json:"winner"`
	Conflict progress.SyncConflict `json:"conflict"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <client.json> <server.json>",
		Short: "Resolve a single-item conflict between two flat records",
		Long: `Resolve one logical item that exists in two divergent versions.

Each file holds one flat JSON record. Records expose their modification time
through an "updated_at" or "timestamp" field; a missing field counts as time
zero. The winner and the audit record are printed.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Policy, "policy", "", "resolution policy (last-write-wins|client-wins|server-wins|merge); defaults to the configured policy")

	return cmd
}

func runResolve(opts *ResolveOptions, clientPath, serverPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	policyName := opts.Policy
	if policyName == "" {
		cfg, err := config.Load(opts.ConfigPath)
		if err != nil {
			formatter.Error(ErrCodeBadInput, err.Error(), nil)
			return WrapExitError(ExitCommandError, "load config", err)
		}
		policyName = cfg.DefaultPolicy
	}
	policy, err := merge.ParsePolicy(policyName)
	if err != nil {
		formatter.Error(ErrCodeBadInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "parse policy", err)
	}

	client, err := loadRecord(clientPath)
	if err != nil {
		formatter.Error(ErrCodeReadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load client record", err)
	}
	server, err := loadRecord(serverPath)
	if err != nil {
		formatter.Error(ErrCodeReadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load server record", err)
	}

	winner, conflict, err := merge.Resolve(client, server, policy)
	if err != nil {
		formatter.Error(ErrCodeBadInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "resolve", err)
	}

	return formatter.SuccessJSON(ResolveResult{Winner: winner, Conflict: conflict})
}

// loadRecord reads one flat JSON record.
func loadRecord(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return record, nil
}
