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
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/TheoremMap/pkg/ux"
	"github.com/AleutianAI/TheoremMap/pkg/validation"
	"github.com/AleutianAI/TheoremMap/services/derivation/graph"
	"github.com/AleutianAI/TheoremMap/services/derivation/server"
)

func newPathCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "path FROM TO",
		Short: "Find the shortest derivation from one proposition to another",
		Long: `Finds the shortest chain of objects turning FROM into TO.

Exit codes:
  0  derivation found
  1  FROM or TO is not in the graph, or the graph could not be built
  2  invalid arguments
  3  both exist but no derivation is known`,
		Example: `  theoremmap path "p ∧ q" "s" --objects lib.json`,
		Args:    exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			if err := validation.ValidateExpressions(map[string]string{"FROM": args[0], "TO": args[1]}); err != nil {
				return withExitCode(ExitBadArgs, err)
			}

			g, _, err := c.app.graph(cmd.Context())
			if err != nil {
				return err
			}

			d, err := graph.FindPath(cmd.Context(), g, args[0], args[1])
			if errors.Is(err, graph.ErrNoPath) {
				if c.output.JSON && !c.output.Quiet {
					resp := server.PathResponse{Found: false, Objects: []string{}, Imports: []string{}}
					if err := writeResult(c.stdout, c.output, "path", start, resp); err != nil {
						return err
					}
					// Already reported; only the exit code remains.
					return withExitCode(ExitNoPath, errReported)
				}
				return withExitCode(ExitNoPath, err)
			}
			if err != nil {
				return err
			}

			switch {
			case c.output.Quiet:
				return nil
			case c.output.JSON:
				return writeResult(c.stdout, c.output, "path", start, server.PathResponse{
					Found:      true,
					Derivation: d,
					Objects:    d.ObjectNames(),
					Imports:    d.Locations(),
				})
			}
			renderDerivation(c.printer(), d)
			return nil
		},
	}
}

// errReported marks an error whose output has already been written.
var errReported = errors.New("reported")

func renderDerivation(p *ux.Printer, d *graph.Derivation) {
	if d.Len() == 0 {
		p.Success(fmt.Sprintf("%s holds trivially", d.Target))
		return
	}

	p.Title(fmt.Sprintf("%s %s %s", d.Source, ux.IconArrow, d.Target))
	for i, step := range d.Steps {
		p.Line(fmt.Sprintf("%d. %s : %s %s %s  %s",
			i+1, p.Bold(step.ObjectName), step.From, ux.IconArrow, step.To, p.Muted("["+step.Location+"]")))
	}
	p.Line("")
	p.Line(p.Muted("imports:"))
	for _, loc := range uniqueImports(d.Locations()) {
		p.Line("  " + loc)
	}
}

// uniqueImports drops repeated and empty locations, keeping first use order.
func uniqueImports(locs []string) []string {
	seen := make(map[string]bool, len(locs))
	out := make([]string, 0, len(locs))
	for _, l := range locs {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
