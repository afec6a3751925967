package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/factstore/internal/itemstore"
)

// DebugOptions holds flags for the debug subcommands.
type DebugOptions struct {
	*RootOptions
	Drive string
}

// NewDebugCommand creates the debug command group.
func NewDebugCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DebugOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Inspect and repair a single drive",
		Long: `Low-level access to one drive, bypassing the merged query path.

dump lists every fact of the drive by ordinal, newest first. rm physically
deletes one fact by ordinal; unlike remove it leaves no trace.`,
	}
	cmd.PersistentFlags().StringVar(&opts.Drive, "drive", "user", "drive to inspect (user|system)")

	cmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "List every fact of a drive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDebugDrive(cmd, opts, func(s *itemstore.Store, drive itemstore.DriveName) error {
				d, err := s.Drive(drive)
				if err != nil {
					return exitFor("dump failed", err)
				}
				all, err := d.Debug().AllFacts(cmd.Context())
				if err != nil {
					return exitFor("dump failed", err)
				}
				return opts.formatter(cmd).writeFacts(all)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <ordinal>",
		Short: "Physically delete one fact by ordinal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ordinal, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || ordinal <= 0 {
				return usageError("ordinal %q: want a positive integer", args[0])
			}
			return withDebugDrive(cmd, opts, func(s *itemstore.Store, drive itemstore.DriveName) error {
				d, err := s.Drive(drive)
				if err != nil {
					return exitFor("rm failed", err)
				}
				if err := d.Debug().RemoveByOrdinal(cmd.Context(), ordinal); err != nil {
					return exitFor("rm failed", err)
				}
				formatter := opts.formatter(cmd)
				if formatter.Format == "json" {
					return formatter.Success(map[string]any{"drive": drive, "ordinal": ordinal})
				}
				fmt.Fprintf(formatter.Writer, "Deleted ordinal %d from %s\n", ordinal, drive)
				return nil
			})
		},
	})

	return cmd
}

func withDebugDrive(cmd *cobra.Command, opts *DebugOptions, fn func(*itemstore.Store, itemstore.DriveName) error) error {
	drive, err := parseDrive(opts.Drive)
	if err != nil {
		return err
	}
	return withStore(cmd, opts.RootOptions, func(s *itemstore.Store) error {
		return fn(s, drive)
	})
}
