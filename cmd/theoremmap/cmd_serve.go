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
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/TheoremMap/services/derivation/server"
	"github.com/AleutianAI/TheoremMap/services/derivation/telemetry"
	"github.com/AleutianAI/TheoremMap/services/derivation/watch"
)

func newServeCmd(c *cli) *cobra.Command {
	var (
		addr      string
		watchMode bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve path queries over HTTP",
		Long: `Loads the configured object lists and serves the derivation API
under /v1/derivation, plus Prometheus metrics on /metrics. With --watch
the graph is rebuilt when an object list changes.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			cfg := a.cfg
			logger := a.logger
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("watch") {
				cfg.Server.Watch = watchMode
			}
			if len(cfg.Objects) == 0 {
				return withExitCode(ExitBadArgs, errNoObjects)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
				}
			}()

			if err := a.openCache(); err != nil {
				return err
			}
			svc := server.NewService(a.pipeline(), a.cache, server.FileLoader(cfg.Objects), logger)
			if _, _, err := svc.Reload(ctx); err != nil {
				return err
			}

			if cfg.Server.Watch {
				w, err := watch.New(cfg.Objects, func(ctx context.Context, changes []watch.Change) {
					for _, ch := range changes {
						logger.Info("object list changed", slog.String("path", ch.Path), slog.String("op", ch.Op.String()))
					}
					if _, _, err := svc.Reload(ctx); err != nil {
						logger.Error("reload failed, keeping previous graph", slog.String("error", err.Error()))
					}
				}, watch.WithDebounce(cfg.Server.Debounce), watch.WithLogger(logger))
				if err != nil {
					return err
				}
				if err := w.Start(ctx); err != nil {
					return err
				}
				defer w.Stop()
			}

			gin.SetMode(gin.ReleaseMode)
			router := server.NewRouter(server.NewHandlers(svc, nil))
			return server.Run(ctx, cfg.Server.Addr, router, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&watchMode, "watch", false, "Rebuild the graph when object lists change")
	return cmd
}
