// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package scheduler implements CycleScheduler (spec §4.10/§5): the
// top-level loop that, on each tick, refreshes download-client sessions
// and then runs the removal and search pipelines for every configured
// curator.
package scheduler

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/declutterd/declutterd/internal/action"
	"github.com/declutterd/declutterd/internal/curator"
	"github.com/declutterd/declutterd/internal/domain"
	"github.com/declutterd/declutterd/internal/downloadclient"
	"github.com/declutterd/declutterd/internal/queue"
	"github.com/declutterd/declutterd/internal/removal"
	"github.com/declutterd/declutterd/internal/search"
	"github.com/declutterd/declutterd/pkg/timeouts"
)

// RemovalJobOrder is the fixed execution order spec §5 mandates: "bad_files,
// failed_imports, failed_downloads, metadata_missing, missing_files,
// orphans, slow, stalled, unmonitored". Jobs not present in a curator's
// RemovalJobs slice are simply absent from this order, not inserted.
var RemovalJobOrder = []string{
	"remove_bad_files",
	"remove_failed_imports",
	"remove_failed_downloads",
	"remove_metadata_missing",
	"remove_missing_files",
	"remove_orphans",
	"remove_slow",
	"remove_stalled",
	"remove_unmonitored",
}

// privacyTracker is the subset of *tracker.Tracker the scheduler needs for
// BeginCycle/RefreshPrivateProtected.
type privacyTracker interface {
	BeginCycle()
	RefreshPrivateProtected(ctx context.Context, clients []downloadclient.Client) error
}

// Curator bundles one configured curator with everything the cycle needs
// to process it.
type Curator struct {
	Name        string
	Kind        domain.CuratorKind
	Gateway     curator.Gateway
	Tracker     privacyTracker
	Fetcher     *queue.Fetcher
	Engine      *removal.Engine
	Dispatcher  *action.Dispatcher
	RemovalJobs []removal.Job // pre-sorted to RemovalJobOrder by SortJobs
	SearchJobs  []*search.Job

	// Bindings is the set of download clients this curator reports,
	// fetched once at setup (ListDownloadClientsBinding, spec §4.1);
	// connectivity is checked against these before each cycle's cleanup.
	Bindings []curator.DownloadClientBinding
}

// SortJobs reorders jobs in place to match RemovalJobOrder; jobs whose
// name is absent from RemovalJobOrder are appended in their original
// relative order, last.
func SortJobs(jobs []removal.Job) []removal.Job {
	index := make(map[string]int, len(RemovalJobOrder))
	for i, name := range RemovalJobOrder {
		index[name] = i
	}

	sorted := make([]removal.Job, len(jobs))
	copy(sorted, jobs)

	for i := 1; i < len(sorted); i++ {
		for k := i; k > 0; k-- {
			a, b := sorted[k-1], sorted[k]
			posA, okA := index[a.Name()]
			posB, okB := index[b.Name()]
			if !okA {
				posA = len(RemovalJobOrder)
			}
			if !okB {
				posB = len(RemovalJobOrder)
			}
			if posA <= posB {
				break
			}
			sorted[k-1], sorted[k] = sorted[k], sorted[k-1]
		}
	}
	return sorted
}

// metricsSink is the subset of *metrics.Collector the scheduler reports
// against; kept as a narrow interface so this package doesn't need to
// import metrics just for a couple of counters.
type metricsSink interface {
	SetDownloadClientConnected(name, kind string, connected bool)
}

type cycleCounter interface {
	WithLabelValues(lvs ...string) prometheus.Counter
}

// Scheduler is CycleScheduler.
type Scheduler struct {
	curators  []*Curator
	registry  *downloadclient.Registry
	interval  time.Duration
	parallel  bool
	log       zerolog.Logger
	onSummary func(curatorName string, queueSize, jobsRun int)

	metrics   metricsSink
	cycleRuns cycleCounter
}

// New constructs a Scheduler.
func New(curators []*Curator, registry *downloadclient.Registry, interval time.Duration, parallel bool, log zerolog.Logger) *Scheduler {
	return &Scheduler{curators: curators, registry: registry, interval: interval, parallel: parallel, log: log}
}

// WithMetrics attaches a metrics sink; subsequent cycles report
// download-client connectivity and per-curator cycle counts through it.
func (s *Scheduler) WithMetrics(sink metricsSink, cycleRuns cycleCounter) *Scheduler {
	s.metrics = sink
	s.cycleRuns = cycleRuns
	return s
}

// WithSummaryHook attaches a callback invoked after each curator's cycle
// with the queue size observed and the number of removal jobs that ran
// without error, letting callers (the admin HTTP status endpoint) surface
// per-curator cycle history.
func (s *Scheduler) WithSummaryHook(fn func(curatorName string, queueSize, jobsRun int)) *Scheduler {
	s.onSummary = fn
	return s
}

// Run executes the tick loop until ctx is canceled (spec §4.10 step 3:
// "Termination signal interrupts sleep and exits cleanly").
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			s.log.Error().Err(err).Msg("scheduler: cycle failed")
		}

		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler: termination signal received, exiting")
			return nil
		case <-time.After(s.interval):
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) error {
	if err := s.refreshSessions(ctx); err != nil {
		s.log.Warn().Err(err).Msg("scheduler: session refresh failed for one or more clients")
	}

	for _, c := range s.curators {
		c.Tracker.BeginCycle()
	}

	if s.parallel {
		g, gctx := errgroup.WithContext(ctx)
		for _, c := range s.curators {
			c := c
			g.Go(func() error {
				s.processCurator(gctx, c)
				return nil
			})
		}
		return g.Wait()
	}

	cycleCtx, cancel := context.WithTimeout(ctx, timeouts.AdaptiveCycleTimeout(len(s.curators)))
	defer cancel()
	for _, c := range s.curators {
		s.processCurator(cycleCtx, c)
	}
	return nil
}

// refreshSessions refreshes every torrent-p2p client's session at tick
// start (spec §4.10 step 1).
func (s *Scheduler) refreshSessions(ctx context.Context) error {
	var firstErr error
	for _, c := range s.registry.AllTorrentP2P() {
		refresher, ok := c.(downloadclient.SessionRefresher)
		if !ok {
			continue
		}
		if err := refresher.RefreshSession(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// processCurator runs one curator's connectivity check, removal pipeline,
// and search pipeline (spec §4.10 step 2).
func (s *Scheduler) processCurator(ctx context.Context, c *Curator) {
	log := s.log.With().Str("curator", c.Name).Logger()

	if disconnected := s.anyBoundClientDisconnected(ctx, c); disconnected {
		log.Warn().Msg("scheduler: a bound download client is disconnected, skipping cleanup this cycle")
		return
	}

	queue, err := c.Fetcher.Get(ctx, domain.ScopeNormal)
	if err != nil {
		log.Warn().Err(err).Msg("scheduler: queue fetch failed, skipping this cycle")
		return
	}

	var actedJobs int
	if len(c.RemovalJobs) > 0 {
		// Gate on configured jobs, not on this ScopeNormal fetch: a job
		// like remove_orphans reads its own scope (ScopeOrphans) inside
		// Engine.Run, which can be non-empty even when the normal queue
		// is empty.
		if err := c.Tracker.RefreshPrivateProtected(ctx, s.registry.AllTorrentP2P()); err != nil {
			log.Warn().Err(err).Msg("scheduler: refreshPrivateProtected failed")
		}
		for _, job := range c.RemovalJobs {
			if err := c.Engine.Run(ctx, job); err != nil {
				log.Warn().Err(err).Str("job", job.Name()).Msg("scheduler: removal job failed")
				continue
			}
			actedJobs++
		}
	}

	for _, sj := range c.SearchJobs {
		if err := sj.Run(ctx, queue); err != nil {
			log.Warn().Err(err).Msg("scheduler: search job failed")
		}
	}

	log.Info().Int("queueSize", len(queue)).Int("jobsRun", actedJobs).Msg("scheduler: cycle summary")
	if s.cycleRuns != nil {
		s.cycleRuns.WithLabelValues(c.Name).Inc()
	}
	if s.onSummary != nil {
		s.onSummary(c.Name, len(queue), actedJobs)
	}
}

func (s *Scheduler) anyBoundClientDisconnected(ctx context.Context, c *Curator) bool {
	for _, binding := range c.Bindings {
		client, ok := s.registry.Lookup(binding.Name)
		if !ok {
			continue
		}
		connected, err := client.ProbeConnected(ctx)
		if s.metrics != nil {
			s.metrics.SetDownloadClientConnected(binding.Name, string(binding.Kind), err == nil && connected)
		}
		if err != nil || !connected {
			return true
		}
	}
	return false
}
