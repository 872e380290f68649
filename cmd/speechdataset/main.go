package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/speechdataset/internal/cli"
	"github.com/alnah/speechdataset/internal/config"
	"github.com/alnah/speechdataset/internal/dataset"
	"github.com/alnah/speechdataset/internal/interrupt"
	"github.com/alnah/speechdataset/internal/pcm"
	"github.com/alnah/speechdataset/internal/prepare"
	"github.com/alnah/speechdataset/internal/segment"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitData       = 5
	ExitInterrupt  = interrupt.ExitInterrupt
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// Context with signal cancellation.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env := cli.DefaultEnv()

	rootCmd := newRootCmd(env)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// newRootCmd assembles the command tree.
func newRootCmd(env *cli.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "speechdataset",
		Short:   "Align, clip and package multi-rate speech data",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(cli.AlignCmd(env))
	rootCmd.AddCommand(cli.ClipCmd(env))
	rootCmd.AddCommand(cli.QuantizeCmd(env))
	rootCmd.AddCommand(cli.PrepareCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	return rootCmd
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Check for context cancellation (interrupt).
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Setup errors (ExitSetup = 3).
	if errors.Is(err, config.ErrInvalidWorkers) || errors.Is(err, cli.ErrUnknownConfigKey) {
		return ExitSetup
	}

	// Validation errors (ExitValidation = 4): bad arguments or inputs.
	if errors.Is(err, segment.ErrInvalidArgument) || errors.Is(err, segment.ErrMisaligned) ||
		errors.Is(err, cli.ErrFileNotFound) || errors.Is(err, cli.ErrUnsupportedFormat) ||
		errors.Is(err, cli.ErrInvalidSeriesArg) || errors.Is(err, cli.ErrNotFloatSeries) ||
		errors.Is(err, cli.ErrOutputExists) || errors.Is(err, pcm.ErrNotWAV) ||
		errors.Is(err, pcm.ErrUnsupportedBitDepth) || errors.Is(err, pcm.ErrInvalidLayout) ||
		errors.Is(err, pcm.ErrInvalidSampleRate) {
		return ExitValidation
	}

	// Data errors (ExitData = 5): inputs too short or inconsistent to align.
	if errors.Is(err, segment.ErrExcessiveRepeat) || errors.Is(err, segment.ErrNoFullUnit) ||
		errors.Is(err, segment.ErrSegmentTooLong) || errors.Is(err, prepare.ErrNoItems) ||
		errors.Is(err, prepare.ErrNotMono) || errors.Is(err, dataset.ErrSchemaMismatch) ||
		errors.Is(err, dataset.ErrUnsupportedDtype) || errors.Is(err, dataset.ErrUnsupportedRank) ||
		errors.Is(err, dataset.ErrUnsafeArchivePath) {
		return ExitData
	}

	// Usage errors (ExitUsage = 2): Cobra flag/arg parsing errors.
	// Domain sentinels above take precedence over message matching.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"unknown command",           // Subcommand doesn't exist
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
