// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/declutterd/declutterd/internal/action"
	"github.com/declutterd/declutterd/internal/apperr"
	"github.com/declutterd/declutterd/internal/config"
	"github.com/declutterd/declutterd/internal/curator"
	"github.com/declutterd/declutterd/internal/deletionbridge"
	"github.com/declutterd/declutterd/internal/domain"
	"github.com/declutterd/declutterd/internal/downloadclient"
	"github.com/declutterd/declutterd/internal/queue"
	"github.com/declutterd/declutterd/internal/removal"
	"github.com/declutterd/declutterd/internal/scheduler"
	"github.com/declutterd/declutterd/internal/search"
	"github.com/declutterd/declutterd/internal/strike"
	"github.com/declutterd/declutterd/internal/tracker"
)

// app holds every long-lived collaborator assembled at setup, so run.go
// can start the scheduler, the admin HTTP server, and the deletion
// bridge against the same instances.
type app struct {
	cfg      *config.Config
	registry *downloadclient.Registry
	curators []*scheduler.Curator
	bridge   *deletionbridge.Bridge // always built; with no watched root folder its Run only waits for cancellation
	log      zerolog.Logger
}

// build performs setup-time wiring: constructs every download client and
// curator gateway, probes each curator (any probe or binding-lookup error
// aborts setup), and assembles the per-curator removal/search pipelines.
func build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	registry := downloadclient.NewRegistry()
	for kind, clients := range cfg.DownloadClients {
		for _, dc := range clients {
			client, err := newDownloadClient(ctx, kind, dc)
			if err != nil {
				return nil, errors.Wrapf(err, "setting up download client %q", dc.Name)
			}
			registry.Register(client)
		}
	}

	a := &app{cfg: cfg, registry: registry, log: log}
	a.bridge = deletionbridge.New(30*time.Second, log)

	for kind, instances := range cfg.Instances {
		for _, inst := range instances {
			c, err := buildCurator(ctx, cfg, kind, inst, registry, log)
			if err != nil {
				return nil, errors.Wrapf(err, "setting up curator %q", inst.Name)
			}
			a.curators = append(a.curators, c)

			if err := a.bridge.AddCurator(ctx, inst.Name, c.Gateway); err != nil {
				log.Warn().Err(err).Str("curator", inst.Name).Msg("setup: deletionbridge.AddCurator failed, deletion reactions disabled for this curator")
			}
		}
	}

	return a, nil
}

func newDownloadClient(ctx context.Context, kind domain.DownloadClientKind, dc config.DownloadClientConfig) (downloadclient.Client, error) {
	switch kind {
	case domain.DownloadClientTorrent:
		return downloadclient.NewQBittorrent(ctx, dc.Name, dc.BaseURL, dc.Username, dc.Password)
	case domain.DownloadClientUsenet:
		return downloadclient.NewUsenet(dc.Name, dc.BaseURL, dc.APIKey, nil), nil
	default:
		return nil, apperr.New(apperr.KindConfigInvalid, "setup.downloadClient", dc.Name, fmt.Errorf("unrecognized download client kind %q", kind))
	}
}

func buildCurator(ctx context.Context, cfg *config.Config, kind domain.CuratorKind, inst config.InstanceConfig, registry *downloadclient.Registry, log zerolog.Logger) (*scheduler.Curator, error) {
	gw := curator.NewHTTPGateway(curator.Config{
		Name:    inst.Name,
		Kind:    kind,
		BaseURL: inst.BaseURL,
		APIKey:  inst.APIKey,
		TestRun: cfg.General.TestRun,
	})

	probe, err := gw.Probe(ctx)
	if err != nil {
		return nil, err
	}
	if probe.NonEnglishUI {
		log.Warn().Str("curator", inst.Name).Msg("setup: curator reports a non-English UI, message-pattern matching may be unreliable")
	}

	bindings, err := gw.ListDownloadClientsBinding(ctx)
	if err != nil {
		return nil, err
	}

	curatorLog := log.With().Str("curator", inst.Name).Logger()

	tr := tracker.New(cfg.General.ProtectedTag)
	fetcher := queue.New(gw, cfg.General.IgnoredDownloadClients, curatorLog)
	strikes := strike.New(tr, curatorLog)
	dispatcher := action.New(gw, registry, tr, cfg.General.PrivateTrackerHandling, cfg.General.PublicTrackerHandling, cfg.General.ObsoleteTag, curatorLog)
	engine := removal.NewEngine(fetcher, tr, strikes, dispatcher)

	jobs := buildRemovalJobs(cfg, gw, registry, tr, strikes)
	jobs = scheduler.SortJobs(jobs)

	var searchJobs []*search.Job
	if kind.SupportsSearch() {
		settings := cfg.JobSettings("search_missing")
		searchJobs = append(searchJobs,
			search.NewMissing(gw, kind, settings.MaxConcurrentSearches, settings.MinDaysBetweenSearches, func() int64 { return time.Now().Unix() }, curatorLog),
			search.NewCutoffUnmet(gw, kind, settings.MaxConcurrentSearches, settings.MinDaysBetweenSearches, func() int64 { return time.Now().Unix() }, curatorLog),
		)
	}

	return &scheduler.Curator{
		Name:        inst.Name,
		Kind:        kind,
		Gateway:     gw,
		Tracker:     tr,
		Fetcher:     fetcher,
		Engine:      engine,
		Dispatcher:  dispatcher,
		RemovalJobs: jobs,
		SearchJobs:  searchJobs,
		Bindings:    bindings,
	}, nil
}

// buildRemovalJobs constructs every enabled removal job for one curator,
// each reading its settings from cfg.JobSettings (spec §6 defaults +
// per-job overrides).
func buildRemovalJobs(cfg *config.Config, gw curator.Gateway, registry *downloadclient.Registry, tr *tracker.Tracker, strikes *strike.Filter) []removal.Job {
	var jobs []removal.Job

	if cfg.JobEnabled("remove_bad_files") {
		jobs = append(jobs, removal.NewBadFiles(registry, tr, false, nil))
	}
	if cfg.JobEnabled("remove_failed_downloads") {
		jobs = append(jobs, removal.NewFailedDownloads())
	}
	if cfg.JobEnabled("remove_failed_imports") {
		s := cfg.JobSettings("remove_failed_imports")
		jobs = append(jobs, removal.NewFailedImports(s.MaxStrikes, s.MessagePatterns))
	}
	if cfg.JobEnabled("remove_metadata_missing") {
		s := cfg.JobSettings("remove_metadata_missing")
		jobs = append(jobs, removal.NewMetadataMissing(s.MaxStrikes))
	}
	if cfg.JobEnabled("remove_missing_files") {
		jobs = append(jobs, removal.NewMissingFiles())
	}
	if cfg.JobEnabled("remove_orphans") {
		jobs = append(jobs, removal.NewOrphans())
	}
	if cfg.JobEnabled("remove_slow") {
		s := cfg.JobSettings("remove_slow")
		jobs = append(jobs, removal.NewSlow(s.MaxStrikes, s.MinSpeedKBs, cfg.General.Timer, registry, tr, strikes, func() int64 { return time.Now().Unix() }))
	}
	if cfg.JobEnabled("remove_stalled") {
		s := cfg.JobSettings("remove_stalled")
		jobs = append(jobs, removal.NewStalled(s.MaxStrikes))
	}
	if cfg.JobEnabled("remove_unmonitored") {
		jobs = append(jobs, removal.NewUnmonitored(gw))
	}

	return jobs
}
