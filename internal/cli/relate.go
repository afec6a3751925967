package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/factstore/internal/itemstore"
	"github.com/roach88/factstore/internal/relation"
)

// RelateOptions holds flags for the relate command.
type RelateOptions struct {
	*RootOptions
	Drive      string
	Attributes []string
}

// NewRelateCommand creates the relate command.
func NewRelateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RelateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "relate <from-item> <to-item> <relationship-type>",
		Short: "Create a relationship item between two items",
		Long: `Create a relationship item linking two items. The relationship's facts are
written as one edit; extra string attributes can be attached with --attr.

Example:
  factstore relate alice bob knows --attr since=2019`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			drive, err := parseDrive(opts.Drive)
			if err != nil {
				return err
			}
			attrs, err := stringAttributes(opts.Attributes)
			if err != nil {
				return err
			}
			edge := relation.Edge{From: args[0], To: args[1], Type: args[2], Attributes: attrs}

			return withStore(cmd, opts.RootOptions, func(s *itemstore.Store) error {
				id, err := relation.New(s).RelateEdge(cmd.Context(), drive, edge)
				if err != nil {
					return exitFor("relate failed", err)
				}
				formatter := opts.formatter(cmd)
				if formatter.Format == "json" {
					return formatter.Success(map[string]string{"relationship_id": id, "drive": string(drive)})
				}
				fmt.Fprintln(formatter.Writer, id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Drive, "drive", "user", "target drive (user|system)")
	cmd.Flags().StringArrayVar(&opts.Attributes, "attr", nil, "extra attribute as name=value (repeatable)")

	return cmd
}

// FindRelOptions holds flags for the find-rel command.
type FindRelOptions struct {
	*RootOptions
	Where []string
}

// IDsResult is the JSON payload of commands that list item ids.
type IDsResult struct {
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

// NewFindRelCommand creates the find-rel command.
func NewFindRelCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindRelOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find-rel",
		Short: "Find items matching every attribute filter",
		Long: `Find relationship ids by endpoint and type. Every given filter must match;
--where adds arbitrary attribute=value filters, so find-rel also intersects
plain items.

Examples:
  factstore find-rel --from alice --type knows
  factstore find-rel --where color=red --where size=L`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := relation.Filter{
				FromItemID:       optionalString(cmd, "from"),
				ToItemID:         optionalString(cmd, "to"),
				RelationshipType: optionalString(cmd, "type"),
			}
			extra, err := parseAssignments(opts.Where)
			if err != nil {
				return err
			}
			filters := append(filter.AttributeFilters(), extra...)

			return withStore(cmd, opts.RootOptions, func(s *itemstore.Store) error {
				ids, err := relation.New(s).Intersect(cmd.Context(), filters)
				if err != nil {
					return exitFor("find-rel failed", err)
				}
				formatter := opts.formatter(cmd)
				if formatter.Format == "json" {
					return formatter.Success(IDsResult{Count: len(ids), IDs: ids})
				}
				if len(ids) == 0 {
					fmt.Fprintln(formatter.Writer, "No matches")
					return nil
				}
				for _, id := range ids {
					fmt.Fprintln(formatter.Writer, id)
				}
				return nil
			})
		},
	}

	cmd.Flags().String("from", "", "fromItemId filter")
	cmd.Flags().String("to", "", "toItemId filter")
	cmd.Flags().String("type", "", "relationshipType filter")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "attribute=value filter (repeatable)")

	return cmd
}

// NewEndpointsCommand creates the endpoints command.
func NewEndpointsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints <relationship-id>",
		Short: "Show the endpoints of a relationship",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, rootOpts, func(s *itemstore.Store) error {
				rel, err := relation.New(s).Endpoints(cmd.Context(), args[0])
				if err != nil {
					return exitFor("endpoints failed", err)
				}
				formatter := rootOpts.formatter(cmd)
				if formatter.Format == "json" {
					return formatter.Success(rel)
				}
				fmt.Fprintf(formatter.Writer, "%s: %s -[%s]-> %s (%s)\n", rel.ID, rel.From, rel.Type, rel.To, rel.Timestamp)
				return nil
			})
		},
	}
}

// parseAssignments parses name=value pairs, sorted by name for stable output.
func parseAssignments(pairs []string) ([]relation.AttributeFilter, error) {
	out := make([]relation.AttributeFilter, 0, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, usageError("%q: want name=value", p)
		}
		out = append(out, relation.AttributeFilter{Attribute: name, Value: value})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Attribute < out[j].Attribute })
	return out, nil
}
