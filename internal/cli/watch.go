package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/factstore/internal/ir"
	"github.com/roach88/factstore/internal/itemstore"
	"github.com/roach88/factstore/internal/watch"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Item     string
	Debounce time.Duration
}

// WatchEvent is the JSON payload printed for each change.
type WatchEvent struct {
	Drive itemstore.DriveName `json:"drive"`
	Facts []ir.Fact           `json:"facts"`
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print facts as other processes write them",
		Long: `Watch the drive files and print every fact appended by another process,
oldest first. Requires on-disk drives.

Example:
  factstore watch --item todo-1
  factstore watch --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Item, "item", "", "only print facts of this item")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", watch.DefaultDebounce, "quiet period before reporting a change")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	if opts.Config.InMemory {
		return usageError("watch needs on-disk drives; drop --memory")
	}

	s, err := openStore(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			opts.Logger.Error("error closing store", "error", closeErr)
		}
	}()

	userPath, systemPath := opts.Config.DrivePaths()
	w, err := watch.New(map[itemstore.DriveName]string{
		itemstore.User:   userPath,
		itemstore.System: systemPath,
	}, watch.Options{Debounce: opts.Debounce, Logger: opts.Logger})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start watcher", err)
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			opts.Logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	tail := &tailer{store: s, item: opts.Item, last: map[itemstore.DriveName]int64{}}
	for _, drive := range itemstore.Drives {
		if _, err := tail.next(ctx, drive); err != nil {
			return exitFor("watch failed", err)
		}
	}

	formatter := opts.formatter(cmd)
	fmt.Fprintln(formatter.GetErrWriter(), "Watching drives. Press Ctrl-C to stop.")

	err = w.Run(ctx, func(drive itemstore.DriveName) {
		facts, err := tail.next(ctx, drive)
		if err != nil {
			opts.Logger.Warn("reading changes failed", "drive", drive, "error", err)
			return
		}
		if len(facts) == 0 {
			return
		}
		if formatter.Format == "json" {
			_ = formatter.Success(WatchEvent{Drive: drive, Facts: facts})
			return
		}
		for _, f := range facts {
			fmt.Fprintf(formatter.Writer, "%s %s\n", drive, f)
		}
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "watcher error", err)
	}

	opts.Logger.Info("watch stopped")
	return nil
}

// tailer tracks the highest ordinal seen per drive.
type tailer struct {
	store *itemstore.Store
	item  string
	last  map[itemstore.DriveName]int64
}

// next returns the facts of drive appended since the previous call, oldest
// first. The first call only records the current position.
func (t *tailer) next(ctx context.Context, drive itemstore.DriveName) ([]ir.Fact, error) {
	last, seen := t.last[drive]
	if !seen {
		ordinal, err := t.store.LastOrdinal(ctx, drive)
		if err != nil {
			return nil, err
		}
		t.last[drive] = ordinal
		return []ir.Fact{}, nil
	}

	appended, err := t.store.FactsAfter(ctx, drive, last)
	if err != nil {
		return nil, err
	}
	fresh := []ir.Fact{}
	for _, f := range appended.Facts() {
		t.last[drive] = f.Ordinal
		if t.item == "" || f.ItemID == t.item {
			fresh = append(fresh, f)
		}
	}
	return fresh, nil
}
