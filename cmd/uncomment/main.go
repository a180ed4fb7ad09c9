// Package main implements the uncomment CLI: a batch tool that strips
// comments from source files while keeping the ones that matter.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Goldziher/uncomment/internal/config"
	"github.com/Goldziher/uncomment/internal/driver"
)

var version = "dev"

var (
	// Global flags
	verbose    bool
	configPath string

	// Rule overrides
	removeTodos      bool
	removeFixmes     bool
	removeDocs       bool
	ignorePatterns   []string
	noDefaultIgnores bool

	// Run mode
	dryRun  bool
	diff    bool
	threads int

	logger *zap.Logger

	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "uncomment [paths...]",
	Short: "Remove comments from source files, keeping the ones that matter",
	Long: `uncomment rewrites source files by removing comments while preserving
meaningful metadata: linter directives, build tags, documentation, shebangs,
and anything marked with ~keep.

Parsing is exact: comment-like text inside string literals or regular
expressions is never touched, and removals never change the surrounding
code.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stderr"}
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := driver.ModeWrite
		switch {
		case diff:
			mode = driver.ModeDiff
		case dryRun:
			mode = driver.ModeDryRun
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := driver.Run(ctx, driver.Options{
			Paths:      args,
			Mode:       mode,
			Threads:    threads,
			Verbose:    verbose,
			ConfigPath: configPath,
			CLI: config.Overrides{
				RemoveTodos:      removeTodos,
				RemoveFixmes:     removeFixmes,
				RemoveDocs:       removeDocs,
				NoDefaultIgnores: noDefaultIgnores,
				IgnorePatterns:   ignorePatterns,
			},
		}, logger, os.Stdout)
		if err != nil {
			// Covers config.ErrInvalid and any setup failure: nothing
			// was processed.
			exitCode = 2
			return err
		}
		exitCode = report.ExitCode()
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&verbose, "verbose", false, "include skipped files and warnings in the summary")
	pf.StringVar(&configPath, "config", "", "use a specific configuration file instead of discovery")

	f := rootCmd.Flags()
	f.BoolVarP(&removeTodos, "remove-todo", "r", false, "remove TODO comments")
	f.BoolVarP(&removeFixmes, "remove-fixme", "f", false, "remove FIXME comments")
	f.BoolVarP(&removeDocs, "remove-doc", "d", false, "remove documentation comments")
	f.StringArrayVarP(&ignorePatterns, "ignore-patterns", "i", nil, "additional preservation patterns (repeatable)")
	f.BoolVar(&noDefaultIgnores, "no-default-ignores", false, "disable built-in per-language directive preservation")
	f.BoolVarP(&dryRun, "dry-run", "n", false, "report what would change without writing")
	f.BoolVar(&diff, "diff", false, "dry run printing a unified diff per file")
	f.IntVar(&threads, "threads", 0, "worker count (default: number of CPUs)")

	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "uncomment:", err)
		if exitCode == 0 {
			exitCode = 2
		}
	}
	if logger != nil {
		_ = logger.Sync()
	}
	os.Exit(exitCode)
}
