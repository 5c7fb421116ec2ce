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
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/TheoremMap/services/derivation/records"
	"github.com/AleutianAI/TheoremMap/services/derivation/server"
)

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show derivation graph and cache statistics",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := time.Now()
			a := c.app

			g, recs, err := a.graph(cmd.Context())
			if err != nil {
				return err
			}
			stats := server.StatsResponse{
				Graph:         g.Stats(),
				Records:       len(recs),
				RecordsHash:   records.Hash(recs),
				Augmented:     a.cfg.Augment,
				LoadedAtMilli: time.Now().UnixMilli(),
			}
			if a.cache != nil {
				cs := a.cache.Stats()
				stats.Cache = &cs
			}

			switch {
			case c.output.Quiet:
				return nil
			case c.output.JSON:
				return writeResult(c.stdout, c.output, "stats", start, stats)
			}

			p := c.printer()
			p.Title("Derivation graph")
			pairs := [][2]string{
				{"records", itoa(stats.Records)},
				{"records_hash", stats.RecordsHash},
				{"augmented", fmt.Sprint(stats.Augmented)},
				{"nodes", itoa(stats.Graph.Nodes)},
				{"edges", itoa(stats.Graph.Edges)},
				{"sources", itoa(stats.Graph.Sources)},
				{"sinks", itoa(stats.Graph.Sinks)},
				{"isolated", itoa(stats.Graph.IsolatedNodes)},
			}
			if stats.Cache != nil {
				pairs = append(pairs,
					[2]string{"cache_hot_hits", fmt.Sprint(stats.Cache.HotHits)},
					[2]string{"cache_warm_hits", fmt.Sprint(stats.Cache.WarmHits)},
					[2]string{"cache_builds", fmt.Sprint(stats.Cache.Builds)},
				)
			}
			p.KeyValues(pairs)
			return nil
		},
	}
}
