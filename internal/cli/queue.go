package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stillpoint/stillsync/internal/config"
	"github.com/stillpoint/stillsync/internal/queue"
	"github.com/stillpoint/stillsync/internal/storage"
)

// QueueOptions holds flags shared by the queue subcommands.
type QueueOptions struct {
	*RootOptions
	Abandoned bool
	Kind      string
}

// NewQueueCommand creates the queue command and its subcommands.
func NewQueueCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueueOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and mutate the pending-operation queue",
		Long: `Operate on the pending-operation queue backed by the configured store.

The queue holds local mutations not yet acknowledged by the remote replica.
Items abandoned after exhausting the retry ceiling are kept in a side list
for manual inspection ("queue list --abandoned").`,
	}

	list := &cobra.Command{
		Use:           "list",
		Short:         "List pending (or abandoned) queue items",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueList(opts, cmd)
		},
	}
	list.Flags().BoolVar(&opts.Abandoned, "abandoned", false, "list the abandoned side list instead of pending items")

	add := &cobra.Command{
		Use:           "add <payload-json>",
		Short:         "Append a pending mutation",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueAdd(opts, args[0], cmd)
		},
	}
	add.Flags().StringVar(&opts.Kind, "kind", "session", "mutation kind (session|assessment|badge)")

	remove := &cobra.Command{
		Use:           "remove <id>",
		Short:         "Remove a pending item (idempotent)",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueRemove(opts, args[0], cmd)
		},
	}

	retry := &cobra.Command{
		Use:           "retry <id>",
		Short:         "Increment an item's retry counter",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueRetry(opts, args[0], cmd)
		},
	}

	clear := &cobra.Command{
		Use:           "clear",
		Short:         "Empty the pending queue",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueClear(opts, cmd)
		},
	}

	cmd.AddCommand(list, add, remove, retry, clear)
	return cmd
}

// openQueue opens the configured store and loads the queue from it.
// The returned closer releases the underlying database.
func openQueue(opts *QueueOptions) (*queue.Queue, config.Config, func() error, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, config.Config{}, nil, err
	}

	db, err := storage.OpenSQLite(cfg.StorePath)
	if err != nil {
		return nil, config.Config{}, nil, fmt.Errorf("open store: %w", err)
	}

	store := storage.NewNamespaced(db, cfg.Namespace, slog.Default())
	q := queue.Open(context.Background(), store)
	return q, cfg, db.Close, nil
}

func runQueueList(opts *QueueOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	q, cfg, closeStore, err := openQueue(opts)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open queue", err)
	}
	defer closeStore()

	items := q.GetAll()
	if opts.Abandoned {
		d := queue.NewDispatcher(context.Background(), q, cfg.RetryCeiling, slog.Default())
		items = d.Abandoned()
	}

	return formatter.SuccessJSON(items)
}

func runQueueAdd(opts *QueueOptions, payload string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if !json.Valid([]byte(payload)) {
		err := fmt.Errorf("payload is not valid JSON")
		formatter.Error(ErrCodeBadInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "queue add", err)
	}

	q, _, closeStore, err := openQueue(opts)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open queue", err)
	}
	defer closeStore()

	item := q.AddRaw(context.Background(), queue.Kind(opts.Kind), json.RawMessage(payload))
	formatter.VerboseLog("queued %s item %s", item.Kind, item.ID)

	return formatter.SuccessJSON(item)
}

func runQueueRemove(opts *QueueOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	q, _, closeStore, err := openQueue(opts)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open queue", err)
	}
	defer closeStore()

	q.Remove(context.Background(), id)
	return formatter.Success(fmt.Sprintf("removed %s (%d items pending)", id, q.Len()))
}

func runQueueRetry(opts *QueueOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	q, _, closeStore, err := openQueue(opts)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open queue", err)
	}
	defer closeStore()

	retries := q.IncrementRetry(context.Background(), id)
	if retries < 0 {
		err := fmt.Errorf("no pending item with id %s", id)
		formatter.Error(ErrCodeBadInput, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}
	return formatter.Success(fmt.Sprintf("item %s now at %d retries", id, retries))
}

func runQueueClear(opts *QueueOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	q, _, closeStore, err := openQueue(opts)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open queue", err)
	}
	defer closeStore()

	q.Clear(context.Background())
	return formatter.Success("queue cleared")
}

// newFormatter builds the standard formatter for a command invocation.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
