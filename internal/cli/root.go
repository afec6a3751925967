package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/factstore/internal/config"
	"github.com/roach88/factstore/internal/itemstore"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// Clock and IDs override the store's time source and id generator
	// (for testing). Nil means wall clock and UUIDv7.
	Clock itemstore.Clock
	IDs   itemstore.IDGenerator

	// Set by the root command before any subcommand runs.
	Config *config.Config
	Logger *slog.Logger

	viper *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the factstore CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWith(&RootOptions{})
}

// NewRootCommandWith creates the root command around caller-supplied options.
func NewRootCommandWith(opts *RootOptions) *cobra.Command {
	opts.viper = config.New()

	cmd := &cobra.Command{
		Use:   "factstore",
		Short: "factstore - temporal fact store",
		Long: `A temporal entity-attribute-value fact store.

Facts are immutable records (item, attribute, value, timestamp) kept on two
drives, user and system. Queries read both drives and merge the results
newest first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := config.Load(opts.viper, opts.ConfigFile)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			opts.Config = cfg
			opts.Logger = cfg.Logger(cmd.ErrOrStderr(), opts.Verbose)
			if used := opts.viper.ConfigFileUsed(); used != "" {
				opts.Logger.Debug("using config file", "path", used)
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", fmt.Errorf("%w: %w", errUsage, err))
	})

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (default is ./factstore.yaml or ~/.factstore/factstore.yaml)")
	config.RegisterFlags(pf)
	_ = config.BindFlags(opts.viper, pf)

	// Add subcommands
	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewFetchCommand(opts))
	cmd.AddCommand(NewRangeCommand(opts))
	cmd.AddCommand(NewDatesCommand(opts))
	cmd.AddCommand(NewRecentCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewDefineCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewRestoreCommand(opts))
	cmd.AddCommand(NewRelateCommand(opts))
	cmd.AddCommand(NewFindRelCommand(opts))
	cmd.AddCommand(NewEndpointsCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewDebugCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
// Errors are rendered through the output formatter.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := NewRootCommandWith(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: stdout, ErrWriter: stderr, Verbose: opts.Verbose}
	if !isValidFormat(formatter.Format) {
		formatter.Format = "text"
	}
	if formatter.Format == "text" {
		formatter.Writer = stderr
	}
	code, message := errorCode(err)
	_ = formatter.Error(code, message, nil)
	return GetExitCode(err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// openStore opens the store described by the loaded config.
func openStore(cmd *cobra.Command, opts *RootOptions) (*itemstore.Store, error) {
	if err := opts.Config.EnsureDataDir(); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to prepare data dir", err)
	}
	storeOpts := opts.Config.StoreOptions(opts.Logger)
	storeOpts.Clock = opts.Clock
	storeOpts.IDs = opts.IDs

	s, err := itemstore.Open(cmd.Context(), storeOpts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	opts.Logger.Debug("store opened", "user", storeOpts.UserPath, "system", storeOpts.SystemPath, "memory", storeOpts.InMemory)
	return s, nil
}

// withStore opens the store, runs fn and closes the store.
func withStore(cmd *cobra.Command, opts *RootOptions, fn func(*itemstore.Store) error) error {
	s, err := openStore(cmd, opts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			opts.Logger.Error("error closing store", "error", closeErr)
		}
	}()
	return fn(s)
}

func (opts *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
