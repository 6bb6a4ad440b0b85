// Copyright 2025 Permdiff
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/permdiff/permdiff/commands/config"
	"github.com/permdiff/permdiff/logging"
	"github.com/permdiff/permdiff/report"
)

// DefaultFs can be set by tests to use an in-memory filesystem. If nil,
// the commands will use the real OS filesystem.
var DefaultFs afero.Fs

// LogOutput overrides the diagnostic destination. Tests can set this to
// capture log output; nil means stderr.
var LogOutput io.Writer

// errAlreadyReported marks failures the command has already logged, so
// Execute does not print them a second time.
var errAlreadyReported = errors.New("failure already reported")

func targetFs() afero.Fs {
	if DefaultFs != nil {
		return DefaultFs
	}
	return afero.NewOsFs()
}

// Execute runs the permdiff command tree and returns the process exit code.
func Execute() int {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errAlreadyReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

// cliOptions holds the flag targets shared by the root command and its
// subcommands.
type cliOptions struct {
	outputFormat    report.Format
	logLevel        slog.Level
	logFile         string
	configPath      string
	recursive       bool
	ignoreOwnership bool
	include         string
	exclude         string
	reportFile      string
	dryRun          bool
	yes             bool
}

// NewRootCmd builds the permdiff command tree.
func NewRootCmd() *cobra.Command {
	opts := &cliOptions{
		outputFormat: report.FormatText,
		logLevel:     slog.LevelInfo,
	}

	rootCmd := &cobra.Command{
		Use:   "permdiff DIR1 DIR2",
		Short: "Compare permission metadata between two directory trees",
		Long: `permdiff walks two directory trees and reports every file whose
permission mode, owner or group differs between them. Files present on
only one side are reported against an inaccessible placeholder. The run
exits 0 however many differences it finds; only bad invocations and
unreadable roots exit 1.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys := targetFs()
			settings, log, closeLog, err := opts.resolve(cmd, fsys)
			if err != nil {
				return err
			}
			defer closeLog()

			compare := NewCompareCmd(cmd.OutOrStdout(), log, args[0], args[1])
			compare.Fs = fsys
			compare.Recursive = settings.recursive
			compare.IgnoreOwnership = settings.ignoreOwnership
			compare.Include = settings.include
			compare.Exclude = settings.exclude
			compare.Format = settings.format
			compare.ReportFile = opts.reportFile
			if compare.Run() != 0 {
				return errAlreadyReported
			}
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&opts.recursive, "recursive", "r", false, "Descend into subdirectories instead of comparing only the top level")
	pf.BoolVar(&opts.ignoreOwnership, "ignore-ownership", false, "Compare permission modes only, ignoring owner and group")
	pf.StringVar(&opts.include, "include", "", "Only compare relative paths matching this regular expression")
	pf.StringVar(&opts.exclude, "exclude", "", "Skip relative paths matching this regular expression")
	pf.Var(enumflag.New(&opts.logLevel, "level", logging.LevelIds, enumflag.EnumCaseInsensitive),
		"log-level", "Diagnostic verbosity: DEBUG, INFO, WARNING, ERROR or CRITICAL")
	pf.StringVar(&opts.logFile, "log-file", "", "Also append diagnostics to this rotating log file")
	pf.StringVar(&opts.configPath, "config", "", "Path to a config file (default $PERMDIFF_CONFIG, then ~/.config/permdiff/config.yml)")

	rootCmd.Flags().Var(enumflag.New(&opts.outputFormat, "format", report.FormatIds, enumflag.EnumCaseInsensitive),
		"output-format", "Report format: text or rich")
	rootCmd.Flags().StringVar(&opts.reportFile, "report-file", "", "Write the report to this file instead of stdout")

	rootCmd.AddCommand(newFixCmd(opts))
	return rootCmd
}

func newFixCmd(opts *cliOptions) *cobra.Command {
	fixCmd := &cobra.Command{
		Use:   "fix DIR1 DIR2",
		Short: "Align the second tree's permissions with the first",
		Long: `fix runs the same comparison as the root command and then applies the
first tree's mode (and ownership, unless --ignore-ownership) onto the
second tree for every difference found. Only paths that are readable
regular files in the first tree and present in the second can be
aligned; anything else is skipped. fix never creates or removes files.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys := targetFs()
			settings, log, closeLog, err := opts.resolve(cmd, fsys)
			if err != nil {
				return err
			}
			defer closeLog()

			fix := NewFixCmd(cmd.OutOrStdout(), log, args[0], args[1])
			fix.Fs = fsys
			fix.Ops = &OsPermOps{Fs: fsys}
			fix.Recursive = settings.recursive
			fix.IgnoreOwnership = settings.ignoreOwnership
			fix.Include = settings.include
			fix.Exclude = settings.exclude
			fix.DryRun = opts.dryRun
			fix.Yes = opts.yes
			if fix.Run() != 0 {
				return errAlreadyReported
			}
			return nil
		},
	}
	fixCmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Don't modify anything; show planned changes")
	fixCmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Apply changes without confirmation")
	return fixCmd
}

// runSettings are the effective options after merging the config file with
// explicitly set flags.
type runSettings struct {
	format          report.Format
	level           slog.Level
	logFile         string
	recursive       bool
	ignoreOwnership bool
	include         string
	exclude         string
}

// resolve loads the config file, overlays explicitly set flags and builds
// the run logger. Config values that fail to parse are reported as warnings
// and fall back to defaults rather than failing the run.
func (o *cliOptions) resolve(cmd *cobra.Command, fsys afero.Fs) (runSettings, *slog.Logger, func() error, error) {
	cfg, err := config.Load(fsys, o.configPath)
	if err != nil {
		return runSettings{}, nil, nil, err
	}

	s := runSettings{
		format:          report.FormatText,
		level:           slog.LevelInfo,
		logFile:         cfg.LogFile,
		recursive:       cfg.Recursive,
		ignoreOwnership: cfg.IgnoreOwnership,
		include:         cfg.Include,
		exclude:         cfg.Exclude,
	}

	var warnings []string
	if cfg.OutputFormat != "" {
		format, err := report.ParseFormat(cfg.OutputFormat)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("config output_format ignored: %v", err))
		} else {
			s.format = format
		}
	}
	if cfg.LogLevel != "" {
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("config log_level ignored: %v", err))
		} else {
			s.level = level
		}
	}

	// Flags given explicitly on the command line win over config values.
	flags := cmd.Flags()
	if flags.Changed("output-format") {
		s.format = o.outputFormat
	}
	if flags.Changed("log-level") {
		s.level = o.logLevel
	}
	if flags.Changed("log-file") {
		s.logFile = o.logFile
	}
	if flags.Changed("recursive") {
		s.recursive = o.recursive
	}
	if flags.Changed("ignore-ownership") {
		s.ignoreOwnership = o.ignoreOwnership
	}
	if flags.Changed("include") {
		s.include = o.include
	}
	if flags.Changed("exclude") {
		s.exclude = o.exclude
	}

	log, closeLog, err := logging.Setup(logging.Options{
		Level: s.level,
		File:  s.logFile,
		Out:   LogOutput,
	})
	if err != nil {
		return runSettings{}, nil, nil, err
	}
	for _, warning := range warnings {
		log.Warn(warning)
	}
	return s, log, closeLog, nil
}
