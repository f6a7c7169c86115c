package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/phrasal/phrasal/pkg/errors"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version.
// This is typically called by the main package during initialization with
// values injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the phrasal CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// The function sets up the root command with all subcommands (draw, figure,
// dot), configures logging based on the --verbose flag, and executes the
// command tree.
//
// Logging:
//   - Default: warn level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext. SVG output goes to stdout unless -o is given, so
// diagnostics stay on stderr.
func Execute(ctx context.Context) error {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "phrasal",
		Short:        "Phrasal renders constituent trees as SVG",
		Long:         `Phrasal is a CLI tool for rendering linguistics-style constituent trees, written as bracketed literals, into deterministic SVG diagrams with movement arrows and constituent highlights.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.WarnLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
			return applyConfig(cmd.Context(), configPath)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("phrasal %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "TOML file with default rendering options")

	root.AddCommand(newDrawCmd())
	root.AddCommand(newFigureCmd())
	root.AddCommand(newDotCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		if !stderrors.Is(err, context.Canceled) {
			printError("%s", errors.UserMessage(err))
		}
		return err
	}
	return nil
}
