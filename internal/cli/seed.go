package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/factstore/internal/itemstore"
	"github.com/roach88/factstore/internal/seed"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Drive string
}

// ImportResult is the JSON payload of the import command.
type ImportResult struct {
	File   string `json:"file"`
	User   int    `json:"user"`
	System int    `json:"system"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import facts from a seed file or export stream",
		Long: `Import facts from a YAML (.yaml, .yml) or CUE (.cue) seed file, or from an
export stream (.jsonl). Every record is validated before anything is written;
each drive then receives its facts as one batch.

Records without a drive go to --drive. Export streams carry no drive, so all
of their facts go to --drive and every line's digest is verified.

Examples:
  factstore import seed.yaml
  factstore import backup.jsonl --drive system`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			drive, err := parseDrive(opts.Drive)
			if err != nil {
				return err
			}
			records, err := seed.LoadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load seed", err)
			}
			opts.Logger.Debug("seed loaded", "file", args[0], "records", len(records))

			return withStore(cmd, opts.RootOptions, func(s *itemstore.Store) error {
				res, err := seed.Import(cmd.Context(), s, records, drive, opts.Logger)
				if err != nil {
					return exitFor("import failed", err)
				}
				result := ImportResult{
					File:   args[0],
					User:   res.Written[itemstore.User],
					System: res.Written[itemstore.System],
				}
				formatter := opts.formatter(cmd)
				if formatter.Format == "json" {
					return formatter.Success(result)
				}
				fmt.Fprintf(formatter.Writer, "Imported %d facts (user %d, system %d)\n", res.Total(), result.User, result.System)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Drive, "drive", "user", "drive for records that name none (user|system)")

	return cmd
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Drive  string
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a drive as canonical JSON lines",
		Long: `Export every fact of one drive, including removed ones, as canonical JSON
lines in ordinal order. Each line carries a sha256 digest of its content.
The stream is written regardless of --format.

Example:
  factstore export --drive user -o user.jsonl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			drive, err := parseDrive(opts.Drive)
			if err != nil {
				return err
			}
			return withStore(cmd, opts.RootOptions, func(s *itemstore.Store) error {
				all, err := s.FactsAfter(cmd.Context(), drive, 0)
				if err != nil {
					return exitFor("export failed", err)
				}

				var w io.Writer = cmd.OutOrStdout()
				if opts.Output != "" {
					f, err := os.Create(opts.Output)
					if err != nil {
						return WrapExitError(ExitCommandError, "failed to create output file", err)
					}
					defer f.Close()
					w = f
				}

				n, err := seed.Export(w, all)
				if err != nil {
					return WrapExitError(ExitCommandError, "export failed", err)
				}
				opts.Logger.Debug("export written", "drive", drive, "facts", n)
				if opts.Output != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d facts to %s\n", n, opts.Output)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Drive, "drive", "user", "drive to export (user|system)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")

	return cmd
}
