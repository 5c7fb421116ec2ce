// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/TheoremMap/pkg/ux"
	"github.com/AleutianAI/TheoremMap/services/derivation/config"
)

// cli holds the streams and persistent flags shared by every command.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	envFile    string
	objects    []string
	noAugment  bool
	noCache    bool
	logLevel   string
	output     OutputConfig

	app *app
}

func (c *cli) printer() *ux.Printer {
	return ux.NewPrinter(c.stdout)
}

// newRootCmd builds the command tree writing to stdout and stderr.
func newRootCmd(stdout, stderr io.Writer) (*cobra.Command, *cli) {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "theoremmap",
		Short: "Find chains of library objects that derive one proposition from another",
		Long: `theoremmap indexes a library of typed objects as a derivation graph.
Every object of type "A → B → C" contributes an edge A ⇒ (B → C), and
multi-argument objects are also uncurried into (A ∧ B) ⇒ C. Path queries
return the shortest chain of objects and the imports it needs.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withExitCode(ExitBadArgs, err)
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "Path to a YAML config file")
	pf.StringVar(&c.envFile, "env-file", ".env", "Dotenv file with THEOREMMAP_* overrides (ignored if missing)")
	pf.StringSliceVarP(&c.objects, "objects", "o", nil, "Object-list JSON files (repeatable)")
	pf.BoolVar(&c.noAugment, "no-augment", false, "Skip uncurrying multi-argument objects")
	pf.BoolVar(&c.noCache, "no-cache", false, "Disable the on-disk graph cache")
	pf.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&c.output.JSON, "json", false, "Output as JSON")
	pf.BoolVar(&c.output.Compact, "compact", false, "Compact JSON (with --json)")
	pf.BoolVarP(&c.output.Quiet, "quiet", "q", false, "No output, exit code only")

	root.AddCommand(
		newBuildCmd(c),
		newPathCmd(c),
		newSplitCmd(c),
		newStatsCmd(c),
		newServeCmd(c),
		newConfigCmd(c),
	)
	return root, c
}

// setup loads the environment and configuration, applies flag overrides
// and creates the app.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return withExitCode(ExitBadArgs, err)
		}
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return withExitCode(ExitBadArgs, err)
	}

	if len(c.objects) > 0 {
		cfg.Objects = c.objects
	}
	if c.noAugment {
		cfg.Augment = false
	}
	if c.noCache {
		cfg.Cache.Enabled = false
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return withExitCode(ExitBadArgs, err)
	}

	a, err := newApp(cfg, c.stderr, c.output.Quiet)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

// exactArgs is cobra.ExactArgs with the bad-arguments exit code.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return withExitCode(ExitBadArgs, cobra.ExactArgs(n)(cmd, args))
	}
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	root, c := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.Execute()
	if err != nil && !errors.Is(err, errReported) {
		name := root.Name()
		if cmd, _, findErr := root.Find(args); findErr == nil {
			name = cmd.Name()
		}
		writeError(stdout, stderr, c.output, name, err)
	}
	if c.app != nil && err != nil {
		// PersistentPostRunE does not run after a failed RunE.
		_ = c.app.Close()
	}
	return exitCode(err)
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
