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
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/TheoremMap/services/derivation/graph"
)

// BuildResult is the data of `theoremmap build`.
type BuildResult struct {
	Records   int              `json:"records"`
	Augmented bool             `json:"augmented"`
	Graph     graph.GraphStats `json:"graph"`
	Snapshot  string           `json:"snapshot,omitempty"`
}

func newBuildCmd(c *cli) *cobra.Command {
	var snapshot string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the derivation graph and warm the cache",
		Long: `Loads the configured object lists, builds the derivation graph and
stores it in the graph cache. With --snapshot the graph is also written
as a JSON snapshot.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := time.Now()
			a := c.app

			g, recs, err := a.graph(cmd.Context())
			if err != nil {
				return err
			}

			result := BuildResult{
				Records:   len(recs),
				Augmented: a.cfg.Augment,
				Graph:     g.Stats(),
			}
			if snapshot != "" {
				data, err := graph.EncodeSnapshot(g)
				if err != nil {
					return err
				}
				if err := os.WriteFile(snapshot, data, 0o644); err != nil {
					return fmt.Errorf("write snapshot: %w", err)
				}
				result.Snapshot = snapshot
			}

			switch {
			case c.output.Quiet:
				return nil
			case c.output.JSON:
				return writeResult(c.stdout, c.output, "build", start, result)
			}

			p := c.printer()
			p.Success(fmt.Sprintf("derivation graph built from %d records", result.Records))
			p.KeyValues([][2]string{
				{"nodes", itoa(result.Graph.Nodes)},
				{"edges", itoa(result.Graph.Edges)},
				{"augmented", fmt.Sprint(result.Augmented)},
			})
			if snapshot != "" {
				p.Line("snapshot written to " + snapshot)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Also write the graph as a JSON snapshot to this file")
	return cmd
}
