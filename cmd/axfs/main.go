package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/FuqingZh/axiomkit/internal/config"
	"github.com/FuqingZh/axiomkit/internal/copytree"
)

var version = "dev"

func main() {
	os.Exit(run())
}

// choiceFlag is a custom pflag.Value restricted to a fixed set of values,
// so invalid policy names fail at flag parse time instead of mid-copy.
type choiceFlag struct {
	value   string
	choices []string
}

var _ pflag.Value = (*choiceFlag)(nil)

func newChoiceFlag(def string, choices ...string) *choiceFlag {
	return &choiceFlag{value: def, choices: choices}
}

func (f *choiceFlag) String() string { return f.value }
func (f *choiceFlag) Type() string   { return "string" }

func (f *choiceFlag) Set(val string) error {
	for _, c := range f.choices {
		if val == c {
			f.value = val
			return nil
		}
	}
	return fmt.Errorf("must be one of: %s", strings.Join(f.choices, ", "))
}

//nolint:gocyclo // main CLI entry point orchestrates all flag parsing
func run() int {
	var (
		includeFiles []string
		excludeFiles []string
		includeDirs  []string
		excludeDirs  []string
		depth        int
		workers      int
		flatten      bool
		dryRun       bool
		verifyFlag   bool
		bwLimitStr   string
		verbose      bool
		quiet        bool
		showVersion  bool
	)

	patternMode := newChoiceFlag("glob", "glob", "regex", "literal")
	fileConflict := newChoiceFlag("skip", "skip", "overwrite", "error")
	dirConflict := newChoiceFlag("skip", "skip", "merge", "error")
	symlinks := newChoiceFlag("copy", "copy", "dereference", "skip")
	depthMode := newChoiceFlag("at-most", "at-most", "exact")

	rootCmd := &cobra.Command{
		Use:   "axfs [flags] <source> <destination>",
		Short: "Filtered, parallel recursive directory copy",
		Args: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "axfs %s\n", version)
				return nil
			}

			src := args[0]
			dst := args[1]

			// Configure logging.
			logLevel := slog.LevelWarn
			if verbose {
				logLevel = slog.LevelDebug
			} else if !quiet {
				logLevel = slog.LevelInfo
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			}))
			slog.SetDefault(logger)

			// Load optional config file.
			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "error", err)
			}

			// Apply config defaults for flags not explicitly set on CLI.
			if !cmd.Flags().Changed("verify") && cfg.Defaults.Verify != nil {
				verifyFlag = *cfg.Defaults.Verify
			}
			if !cmd.Flags().Changed("bwlimit") && cfg.Defaults.BWLimit != nil {
				bwLimitStr = *cfg.Defaults.BWLimit
			}
			if !cmd.Flags().Changed("pattern-mode") && cfg.Defaults.PatternMode != nil {
				if err := patternMode.Set(*cfg.Defaults.PatternMode); err != nil {
					return fmt.Errorf("config pattern-mode: %w", err)
				}
			}

			var bwLimit int64
			if bwLimitStr != "" {
				bwLimit, err = parseSize(bwLimitStr)
				if err != nil {
					return fmt.Errorf("invalid --bwlimit: %w", err)
				}
			}

			opts := copytree.Options{
				IncludeFiles:   includeFiles,
				ExcludeFiles:   excludeFiles,
				IncludeDirs:    includeDirs,
				ExcludeDirs:    excludeDirs,
				Flatten:        flatten,
				DryRun:         dryRun,
				Verify:         verifyFlag,
				BandwidthLimit: bwLimit,
			}

			// choiceFlag already rejected invalid values, so the parse
			// helpers cannot fail here.
			opts.PatternMode, _ = copytree.ParsePatternMode(patternMode.value)
			opts.FileConflict, _ = copytree.ParseFileConflict(fileConflict.value)
			opts.DirConflict, _ = copytree.ParseDirConflict(dirConflict.value)
			opts.Symlinks, _ = copytree.ParseSymlinkPolicy(symlinks.value)
			opts.DepthMode, _ = copytree.ParseDepthMode(depthMode.value)

			if cmd.Flags().Changed("depth") {
				opts.DepthLimit = &depth
			}
			if cmd.Flags().Changed("workers") {
				opts.Workers = &workers
			} else if cfg.Defaults.Workers != nil {
				opts.Workers = cfg.Defaults.Workers
			}

			if dryRun {
				slog.Info("dry run mode")
			}
			slog.Debug("starting copy",
				"source", src,
				"destination", dst,
				"pattern-mode", patternMode.value,
				"symlinks", symlinks.value,
				"flatten", flatten,
			)

			report, err := copytree.CopyTree(src, dst, opts)
			if err != nil {
				slog.Error("copy failed", "error", err)
				return &exitError{code: 2}
			}

			for _, w := range report.Warnings {
				slog.Warn(w)
			}
			for _, e := range report.Errors {
				slog.Error("copy error", "path", e.Path, "error", e.Message)
			}
			if !quiet {
				fmt.Fprintln(os.Stdout, report.Summary())
			}

			if report.ErrorCount() > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")

	rootCmd.Flags().
		StringArrayVar(&includeFiles, "include-file", nil, "only copy files whose name matches PATTERN (repeatable)")
	rootCmd.Flags().
		StringArrayVar(&excludeFiles, "exclude-file", nil, "skip files whose name matches PATTERN (repeatable)")
	rootCmd.Flags().
		StringArrayVar(&includeDirs, "include-dir", nil, "only descend into directories whose name matches PATTERN (repeatable)")
	rootCmd.Flags().
		StringArrayVar(&excludeDirs, "exclude-dir", nil, "skip directories whose name matches PATTERN (repeatable)")
	rootCmd.Flags().
		Var(patternMode, "pattern-mode", "pattern interpretation: glob, regex or literal (substring)")
	rootCmd.Flags().
		Var(fileConflict, "on-file-conflict", "existing destination file: skip, overwrite or error")
	rootCmd.Flags().
		Var(dirConflict, "on-dir-conflict", "existing destination directory: skip, merge or error")
	rootCmd.Flags().
		Var(symlinks, "symlinks", "symlink handling: copy, dereference or skip")
	rootCmd.Flags().
		IntVar(&depth, "depth", 0, "depth limit; the source root's immediate children are depth 0")
	rootCmd.Flags().
		Var(depthMode, "depth-mode", "depth filter: at-most or exact (exact requires --depth)")
	rootCmd.Flags().
		IntVarP(&workers, "workers", "n", 0, "number of copy workers (default: min(NumCPU, 8))")
	rootCmd.Flags().BoolVar(&flatten, "flatten", false, "place all copied files directly under the destination root")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be copied without writing")
	rootCmd.Flags().BoolVar(&verifyFlag, "verify", false, "verify checksums after copy (BLAKE3)")
	rootCmd.Flags().StringVar(&bwLimitStr, "bwlimit", "", "bandwidth limit (e.g. 100M, 1G)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.AddCommand(docsCmd)

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	return 0
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
