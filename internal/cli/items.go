package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/factstore/internal/ir"
	"github.com/roach88/factstore/internal/itemstore"
)

// ItemOptions holds flags shared by the item commands.
type ItemOptions struct {
	*RootOptions
	Drive string
	ID    string
	Type  string
}

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	ItemOptions
	Attributes []string
	RefFrom    string
	RefType    string
	RefAttrs   []string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{ItemOptions: ItemOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "create <item-type>",
		Short: "Create an item",
		Long: `Create an item by writing its created and type facts as one edit.

String attributes given with --attr join the same edit. --ref-from also
creates a relationship from an existing item to the new one.

Example:
  factstore create todo
  factstore create note --id note-1 --drive system
  factstore create todo --attr title="Buy milk" --ref-from list-1 --ref-type contains`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			drive, err := parseDrive(opts.Drive)
			if err != nil {
				return err
			}
			item := itemstore.NewItem{ID: opts.ID, Type: args[0]}
			if item.Attributes, err = stringAttributes(opts.Attributes); err != nil {
				return err
			}
			if opts.RefFrom != "" {
				refAttrs, err := stringAttributes(opts.RefAttrs)
				if err != nil {
					return err
				}
				item.Reference = &itemstore.Reference{From: opts.RefFrom, Type: opts.RefType, Attributes: refAttrs}
			} else if opts.RefType != "" || len(opts.RefAttrs) > 0 {
				return usageError("--ref-type and --ref-attr need --ref-from")
			}

			return withStore(cmd, opts.RootOptions, func(s *itemstore.Store) error {
				created, err := s.Create(cmd.Context(), drive, item)
				if err != nil {
					return exitFor("create failed", err)
				}
				formatter := opts.formatter(cmd)
				if formatter.Format == "json" {
					out := map[string]string{"item_id": created.ItemID, "drive": string(drive)}
					if created.RelationshipID != "" {
						out["relationship_id"] = created.RelationshipID
					}
					return formatter.Success(out)
				}
				fmt.Fprintln(formatter.Writer, created.ItemID)
				if created.RelationshipID != "" {
					fmt.Fprintln(formatter.Writer, created.RelationshipID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Drive, "drive", "user", "target drive (user|system)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "item id (default: generated)")
	cmd.Flags().StringArrayVar(&opts.Attributes, "attr", nil, "attribute as name=value (repeatable)")
	cmd.Flags().StringVar(&opts.RefFrom, "ref-from", "", "item that gets a relationship to the new item")
	cmd.Flags().StringVar(&opts.RefType, "ref-type", "", "type of the --ref-from relationship")
	cmd.Flags().StringArrayVar(&opts.RefAttrs, "ref-attr", nil, "relationship attribute as name=value (repeatable)")

	return cmd
}

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	ItemOptions
	Successor string
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{ItemOptions: ItemOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "delete <item-id>",
		Short: "Delete an item",
		Long: `Delete an item by writing a deleted fact, plus a successor fact when
--successor is given. The item's earlier facts stay stored; fetch --live
hides them.

Example:
  factstore delete todo-1 --successor todo-2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			drive, err := parseDrive(opts.Drive)
			if err != nil {
				return err
			}
			return withStore(cmd, opts.RootOptions, func(s *itemstore.Store) error {
				stored, err := s.DeleteItem(cmd.Context(), drive, args[0], opts.Successor)
				if err != nil {
					return exitFor("delete failed", err)
				}
				return opts.formatter(cmd).writeFacts(ir.NewFactsCollection(stored...))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Drive, "drive", "user", "target drive (user|system)")
	cmd.Flags().StringVar(&opts.Successor, "successor", "", "item replacing the deleted one")

	return cmd
}

// NewDefineCommand creates the define command.
func NewDefineCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "define <item-id> <attribute> [value]",
		Short: "Set a typed attribute on an item",
		Long: `Set an attribute by appending a typed fact. Earlier values stay stored;
recent and fetch return the newest first.

Examples:
  factstore define todo-1 title "Buy milk"
  factstore define todo-1 due "2024-06-01 12:00:00" --type timestamp
  factstore define todo-1 notes --type null`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			return withStore(cmd, opts.RootOptions, func(s *itemstore.Store) error {
				f, err := s.Define(cmd.Context(), drive, args[0], args[1], value)
				if err != nil {
					return exitFor("define failed", err)
				}
				formatter := opts.formatter(cmd)
				if formatter.Format == "json" {
					return formatter.Success(f)
				}
				fmt.Fprintln(formatter.Writer, f)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Drive, "drive", "user", "target drive (user|system)")
	cmd.Flags().StringVar(&opts.Type, "type", string(ir.TypeString), "value type (string|number|itemId|timestamp|boolean|null)")

	return cmd
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "remove <item-id> <attribute>",
		Short: "Soft-delete the current value of an item attribute",
		Long: `Soft-delete the newest fact for an item attribute by appending a copy
with the removed flag set. Nothing is physically deleted; fetch --live hides
removed facts.

Example:
  factstore remove todo-1 title`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			drive, err := parseDrive(opts.Drive)
			if err != nil {
				return err
			}
			return withStore(cmd, opts.RootOptions, func(s *itemstore.Store) error {
				current, err := s.FetchMostRecentFact(cmd.Context(), args[0], args[1])
				if err != nil {
					return exitFor("remove failed", err)
				}
				if current.Removed() {
					return exitFor("remove failed", fmt.Errorf("%s.%s already removed: %w", args[0], args[1], itemstore.ErrNotFound))
				}
				marker, err := s.RemoveFact(cmd.Context(), drive, current)
				if err != nil {
					return exitFor("remove failed", err)
				}
				formatter := opts.formatter(cmd)
				if formatter.Format == "json" {
					return formatter.Success(marker)
				}
				fmt.Fprintf(formatter.Writer, "Removed %s\n", marker)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Drive, "drive", "user", "drive receiving the removal marker (user|system)")

	return cmd
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ItemOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "restore <item-id> <attribute>",
		Short: "Undo the latest removal of an item attribute",
		Long: `Undo a removal by appending an unflagged copy of the newest removal
marker. The restored fact is live again in fetch --live.

Example:
  factstore restore todo-1 title`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			drive, err := parseDrive(opts.Drive)
			if err != nil {
				return err
			}
			return withStore(cmd, opts.RootOptions, func(s *itemstore.Store) error {
				current, err := s.FetchMostRecentFact(cmd.Context(), args[0], args[1])
				if err != nil {
					return exitFor("restore failed", err)
				}
				if !current.Removed() {
					return exitFor("restore failed", fmt.Errorf("%s.%s is not removed: %w", args[0], args[1], itemstore.ErrNotFound))
				}
				restored, err := s.RemoveFact(cmd.Context(), drive, current)
				if err != nil {
					return exitFor("restore failed", err)
				}
				formatter := opts.formatter(cmd)
				if formatter.Format == "json" {
					return formatter.Success(restored)
				}
				fmt.Fprintf(formatter.Writer, "Restored %s\n", restored)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Drive, "drive", "user", "drive receiving the restoring copy (user|system)")

	return cmd
}
