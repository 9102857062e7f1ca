package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stillpoint/stillsync/internal/validate"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Type string // "request" | "progress" | "session"
}

// ValidationResult holds the validation verdict.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Type  string `json:"type"`
	File  string `json:"file"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a sync payload against its structural schema",
		Long: `Validate a JSON payload against the structural schema for its type.

Exit code 0 means the payload is well-formed; exit code 1 means it is not.
Validators classify, they never repair - what to do with an invalid payload
is the caller's decision.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "request", "payload type (request|progress|session)")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		formatter.Error(ErrCodeReadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read payload", err)
	}

	var valid bool
	switch opts.Type {
	case "request":
		valid = validate.SyncRequest(data)
	case "progress":
		valid = validate.Progress(data)
	case "session":
		valid = validate.Session(data)
	default:
		err := fmt.Errorf("unknown payload type %q: must be request, progress, or session", opts.Type)
		formatter.Error(ErrCodeBadInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "validate", err)
	}

	result := ValidationResult{Valid: valid, Type: opts.Type, File: path}
	if !valid {
		formatter.Error(ErrCodeInvalidPayload, fmt.Sprintf("%s is not a valid %s payload", path, opts.Type), result)
		return NewExitError(ExitFailure, "payload invalid")
	}

	return formatter.SuccessJSON(result)
}
