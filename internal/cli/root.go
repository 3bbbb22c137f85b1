package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/f1metrix/internal/app"
	"github.com/roach88/f1metrix/internal/config"
	"github.com/roach88/f1metrix/internal/gateway"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	Database   string

	// IDGenerator overrides the ad-hoc query ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator gateway.IDGenerator

	viper *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the f1metrix CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	opts.viper = config.NewViper()

	cmd := &cobra.Command{
		Use:   "f1metrix",
		Short: "f1metrix - F1 driver skill model explorer",
		Long: `Explore the outputs of a Bayesian model of Formula 1 driver skill.

Tables are read from a read-only SQLite database of model outputs and cached
for the lifetime of the process. Ad-hoc queries are limited to SELECT.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default ./f1metrix.yaml)")
	flags.StringVar(&opts.Database, "db", "", "path to the model results database (default "+config.DefaultDatabasePath+")")
	_ = opts.viper.BindPFlag("database.path", flags.Lookup("db"))

	// Add subcommands
	cmd.AddCommand(NewTablesCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewEditorialCommand(opts))
	cmd.AddCommand(NewAllTimeCommand(opts))
	cmd.AddCommand(NewYearlyCommand(opts))
	cmd.AddCommand(NewPerformanceCommand(opts))
	cmd.AddCommand(NewHeadToHeadCommand(opts))
	cmd.AddCommand(NewInternalsCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadConfig resolves the configuration for this invocation.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	if o.viper == nil {
		o.viper = config.NewViper()
		if o.Database != "" {
			o.viper.Set("database.path", o.Database)
		}
	}
	cfg, err := config.Load(o.viper, o.ConfigFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// openApp loads config, installs the logger and builds the application.
func (o *RootOptions) openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), o.Verbose, cfg.Logging.Level)
	slog.SetDefault(logger)

	a, err := app.New(cfg, app.WithLogger(logger), app.WithIDGenerator(o.IDGenerator))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return a, nil
}

// newLogger returns a text handler logger on w. Verbose forces Debug.
func newLogger(w io.Writer, verbose bool, level string) *slog.Logger {
	logLevel, err := config.ParseLevel(level)
	if err != nil {
		logLevel = slog.LevelInfo
	}
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// closeApp closes a and logs any error.
func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
