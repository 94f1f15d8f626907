// Package cmd wires the wfrun CLI: job submission, run watching, and
// the HTTP service.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/parsecdata/wfrun/internal/config"
	"github.com/parsecdata/wfrun/internal/observability"
)

var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "HEAD",
	BuildDate: "unknown",
}

// SetVersionInfo records build metadata injected by the linker.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var rootCmd = &cobra.Command{
	Use:   "wfrun",
	Short: "Submit and watch workspace jobs",
	Long: `wfrun resolves logical job names against a Databricks workspace,
starts runs, and watches them to completion.

Job names are matched deployment-prefix first: a job deployed as
"[dev alice@example.com] nightly-load" is found by its logical name
"nightly-load" when you are alice working against the dev target.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.Load(cmd.Context(), flagOverrides(cmd)); err != nil {
			return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
		}
		cfg := config.GetConfig()
		if err := observability.Init(cfg.Logging.Level, cfg.Logging.Profile); err != nil {
			return exitError(foundry.ExitInvalidArgument, "Invalid logging configuration", err)
		}
		return nil
	},
}

var (
	rootLogLevel   string
	rootLogProfile string
	rootTarget     string
	rootHost       string
	rootConfigDir  string
	rootDataDir    string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&rootLogProfile, "log-profile", "", "Log profile (structured|console)")
	rootCmd.PersistentFlags().StringVar(&rootTarget, "target", "", "Deployment target for name resolution (default dev)")
	rootCmd.PersistentFlags().StringVar(&rootHost, "host", "", "Workspace base URL")
	rootCmd.PersistentFlags().StringVar(&rootConfigDir, "config-dir", "", "Directory holding job config files")
	rootCmd.PersistentFlags().StringVar(&rootDataDir, "data-dir", "", "Local state directory")

	rootCmd.AddCommand(versionCmd)
}

// flagOverrides maps changed persistent flags onto config paths.
func flagOverrides(cmd *cobra.Command) map[string]any {
	overrides := map[string]any{}
	backend := map[string]any{}
	logging := map[string]any{}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		logging["level"] = rootLogLevel
	}
	if flags.Changed("log-profile") {
		logging["profile"] = rootLogProfile
	}
	if flags.Changed("target") {
		backend["target"] = rootTarget
	}
	if flags.Changed("host") {
		backend["host"] = rootHost
	}
	if flags.Changed("config-dir") {
		overrides["config_dir"] = rootConfigDir
	}
	if flags.Changed("data-dir") {
		overrides["data_dir"] = rootDataDir
	}

	if len(backend) > 0 {
		overrides["backend"] = backend
	}
	if len(logging) > 0 {
		overrides["logging"] = logging
	}
	return overrides
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wfrun %s (commit %s, built %s)\n",
			versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)
	},
}

// codedError pairs an error with a process exit code.
type codedError struct {
	code    int
	message string
	err     error
}

func (e *codedError) Error() string {
	return fmt.Sprintf("%s: %v (exit code %d)", e.message, e.err, e.code)
}

func (e *codedError) Unwrap() error {
	return e.err
}

// exitError wraps an error with a message and exit code for Execute.
func exitError(code int, message string, err error) error {
	return &codedError{code: code, message: message, err: err}
}

// exitCodeFrom extracts the process exit code from a command error.
func exitCodeFrom(err error) int {
	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code
	}
	return 1
}

// Execute runs the CLI and exits the process on failure.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		observability.Sync()
		os.Exit(exitCodeFrom(err))
	}
	observability.Sync()
}
