// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/declutterd/declutterd/internal/adminhttp"
	"github.com/declutterd/declutterd/internal/config"
	"github.com/declutterd/declutterd/internal/metrics"
	"github.com/declutterd/declutterd/internal/scheduler"
)

// RunServeCommand wires every collaborator together and runs the daemon
// until a termination signal arrives (spec §4.10's outer loop).
func RunServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the cleanup cycle daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			log := newLogger(cfg.General)
			log.Info().Str("adminListenAddr", cfg.General.AdminListenAddr).Msg("declutterd: starting up")

			a, err := build(ctx, cfg, log)
			if err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			collector := metrics.NewCollector(registry)
			summaries := adminhttp.NewSummaryStore()

			sched := scheduler.New(a.curators, a.registry, cfg.General.Timer, cfg.General.ParallelCurators, log).
				WithMetrics(collector, collector.CycleRunTotal).
				WithSummaryHook(func(curatorName string, queueSize, jobsRun int) {
					summaries.Record(adminhttp.CycleSummary{
						Curator:   curatorName,
						QueueSize: queueSize,
						JobsRun:   jobsRun,
						RanAt:     time.Now(),
					})
				})

			httpServer := &http.Server{
				Addr:    cfg.General.AdminListenAddr,
				Handler: adminhttp.NewRouter(registry, summaries, nil, log),
			}

			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				return sched.Run(gctx)
			})

			if a.bridge != nil {
				g.Go(func() error {
					return a.bridge.Run(gctx)
				})
			}

			g.Go(func() error {
				if cfg.General.AdminListenAddr == "" {
					return nil
				}
				log.Info().Str("addr", cfg.General.AdminListenAddr).Msg("declutterd: admin HTTP server listening")
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})

			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			})

			if err := g.Wait(); err != nil {
				return err
			}

			log.Info().Msg("declutterd: shut down cleanly")
			return nil
		},
	}
}
