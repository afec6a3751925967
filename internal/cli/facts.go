package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/factstore/internal/ir"
	"github.com/roach88/factstore/internal/itemstore"
)

// InsertOptions holds flags for the insert command.
type InsertOptions struct {
	*RootOptions
	Drive     string
	FactID    string
	Type      string
	Timestamp string
	Removed   bool
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InsertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "insert <item-id> <attribute> [value]",
		Short: "Insert one raw fact",
		Long: `Insert one fact into a drive.

The value is parsed according to --type. Facts of type null take no value.
Without --timestamp the current time is used; without --fact-id a fresh id
is generated.

Examples:
  factstore insert todo-1 title "Buy milk"
  factstore insert todo-1 priority 2 --type number --drive system`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsert(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Drive, "drive", "user", "target drive (user|system)")
	cmd.Flags().StringVar(&opts.FactID, "fact-id", "", "fact id (default: generated)")
	cmd.Flags().StringVar(&opts.Type, "type", string(ir.TypeString), "fact type (string|number|itemId|timestamp|boolean|null)")
	cmd.Flags().StringVar(&opts.Timestamp, "timestamp", "", "timestamp as "+ir.TimestampLayout+" (default: now)")
	cmd.Flags().BoolVar(&opts.Removed, "removed", false, "set the removed flag")

	return cmd
}

func runInsert(opts *InsertOptions, cmd *cobra.Command, args []string) error {
	drive, err := parseDrive(opts.Drive)
	if err != nil {
		return err
	}
	var text *string
	if len(args) == 3 {
		text = &args[2]
	}
	value, err := parseTypedValue(opts.Type, text)
	if err != nil {
		return err
	}
	if opts.Timestamp != "" {
		if _, err := ir.ParseTimestamp(opts.Timestamp); err != nil {
			return usageError("--timestamp %q: want %s", opts.Timestamp, ir.TimestampLayout)
		}
	}

	f := ir.Fact{
		FactID:    opts.FactID,
		ItemID:    args[0],
		Attribute: args[1],
		Timestamp: opts.Timestamp,
	}
	value.Apply(&f)
	if opts.Removed {
		f.Flags |= ir.FlagRemoved
	}

	return withStore(cmd, opts.RootOptions, func(s *itemstore.Store) error {
		stored, err := s.InsertFact(cmd.Context(), drive, f)
		if err != nil {
			return exitFor("insert failed", err)
		}
		formatter := opts.formatter(cmd)
		if formatter.Format == "json" {
			return formatter.Success(stored)
		}
		fmt.Fprintf(formatter.Writer, "Inserted %s into %s\n", stored, drive)
		return nil
	})
}

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	Live bool
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch facts by item, attribute and value",
		Long: `Fetch facts from both drives matching every given filter, newest first.

Any combination of filters works except item with value but no attribute,
which is rejected. With no filters every fact is listed.

Examples:
  factstore fetch --item todo-1
  factstore fetch --attribute type --value relationship --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(opts, cmd)
		},
	}

	cmd.Flags().String("item", "", "item id")
	cmd.Flags().String("attribute", "", "attribute name")
	cmd.Flags().String("value", "", "exact value")
	cmd.Flags().BoolVar(&opts.Live, "live", false, "hide removed facts and deleted items")

	return cmd
}

func runFetch(opts *FetchOptions, cmd *cobra.Command) error {
	itemID := optionalString(cmd, "item")
	attribute := optionalString(cmd, "attribute")
	value := optionalString(cmd, "value")

	return withStore(cmd, opts.RootOptions, func(s *itemstore.Store) error {
		facts, err := s.FetchFacts(cmd.Context(), itemID, attribute, value)
		if err != nil {
			return exitFor("fetch failed", err)
		}
		if opts.Live {
			if facts, err = s.Live(cmd.Context(), facts); err != nil {
				return exitFor("fetch failed", err)
			}
		}
		return opts.formatter(cmd).writeFacts(facts)
	})
}

// RangeOptions holds flags for the range command.
type RangeOptions struct {
	*RootOptions
	Min float64
	Max float64
}

// NewRangeCommand creates the range command.
func NewRangeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RangeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "range",
		Short: "Fetch facts whose numeric value lies in [min, max]",
		Long: `Fetch facts whose numeric value lies within the inclusive range, newest first.

Item and attribute narrow the search; an item without an attribute is
rejected.

Example:
  factstore range --attribute priority --min 1 --max 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts.RootOptions, func(s *itemstore.Store) error {
				facts, err := s.FetchFactsByValueRange(cmd.Context(),
					optionalString(cmd, "item"), optionalString(cmd, "attribute"), opts.Min, opts.Max)
				if err != nil {
					return exitFor("range failed", err)
				}
				return opts.formatter(cmd).writeFacts(facts)
			})
		},
	}

	cmd.Flags().String("item", "", "item id")
	cmd.Flags().String("attribute", "", "attribute name")
	cmd.Flags().Float64Var(&opts.Min, "min", 0, "lower bound, inclusive")
	cmd.Flags().Float64Var(&opts.Max, "max", 0, "upper bound, inclusive")
	_ = cmd.MarkFlagRequired("min")
	_ = cmd.MarkFlagRequired("max")

	return cmd
}

// NewDatesCommand creates the dates command.
func NewDatesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dates",
		Short: "Fetch facts written within a time window",
		Long: `Fetch facts whose timestamp lies within [after, before], newest first.

Example:
  factstore dates --after "2024-01-01 00:00:00" --before "2024-01-31 23:59:59"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			after, before := optionalString(cmd, "after"), optionalString(cmd, "before")
			return withStore(cmd, rootOpts, func(s *itemstore.Store) error {
				facts, err := s.FetchFactsByDate(cmd.Context(), after, before)
				if err != nil {
					return exitFor("dates failed", err)
				}
				return rootOpts.formatter(cmd).writeFacts(facts)
			})
		},
	}

	cmd.Flags().String("after", "", "earliest timestamp, inclusive")
	cmd.Flags().String("before", "", "latest timestamp, inclusive")
	_ = cmd.MarkFlagRequired("after")
	_ = cmd.MarkFlagRequired("before")

	return cmd
}

// NewRecentCommand creates the recent command.
func NewRecentCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recent <item-id> <attribute>",
		Short: "Show the most recent fact for an item attribute",
		Long: `Show the newest fact for an item attribute across both drives.

Exits with status 1 when no fact exists.

Example:
  factstore recent todo-1 title`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, rootOpts, func(s *itemstore.Store) error {
				f, err := s.FetchMostRecentFact(cmd.Context(), args[0], args[1])
				if err != nil {
					return exitFor("recent failed", err)
				}
				formatter := rootOpts.formatter(cmd)
				if formatter.Format == "json" {
					return formatter.Success(f)
				}
				fmt.Fprintln(formatter.Writer, f)
				return nil
			})
		},
	}
}
