// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package search implements SearchJobs (spec §4.9): paced guided search
// requests for curators' wanted items, for curators that support it.
package search

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/declutterd/declutterd/internal/curator"
	"github.com/declutterd/declutterd/internal/domain"
)

// Job runs one search variant (missing or cutoff-unmet) against one
// curator.
type Job struct {
	name                   string
	kind                   curator.WantedKind
	gateway                curator.Gateway
	curatorKind            domain.CuratorKind
	maxConcurrentSearches  int
	minDaysBetweenSearches int
	nowUnix                func() int64
	log                    zerolog.Logger
}

// NewMissing constructs the search-missing variant.
func NewMissing(gw curator.Gateway, curatorKind domain.CuratorKind, maxConcurrentSearches, minDaysBetweenSearches int, nowUnix func() int64, log zerolog.Logger) *Job {
	return &Job{
		name: "search_missing", kind: curator.WantedMissing, gateway: gw, curatorKind: curatorKind,
		maxConcurrentSearches: maxConcurrentSearches, minDaysBetweenSearches: minDaysBetweenSearches,
		nowUnix: nowUnix, log: log,
	}
}

// NewCutoffUnmet constructs the search-cutoff-unmet variant.
func NewCutoffUnmet(gw curator.Gateway, curatorKind domain.CuratorKind, maxConcurrentSearches, minDaysBetweenSearches int, nowUnix func() int64, log zerolog.Logger) *Job {
	return &Job{
		name: "search_cutoff_unmet", kind: curator.WantedCutoff, gateway: gw, curatorKind: curatorKind,
		maxConcurrentSearches: maxConcurrentSearches, minDaysBetweenSearches: minDaysBetweenSearches,
		nowUnix: nowUnix, log: log,
	}
}

const secondsPerDay = 24 * 60 * 60

// Run executes spec §4.9's four-step pipeline against the curator's
// current normal queue, skipping entirely for curator kinds that don't
// support search (e.g. adult, spec §9).
func (j *Job) Run(ctx context.Context, queue []domain.QueueItem) error {
	if !j.curatorKind.SupportsSearch() {
		return nil
	}

	wanted, err := j.gateway.ListWanted(ctx, j.kind)
	if err != nil {
		return err
	}
	if len(wanted) == 0 {
		j.log.Info().Str("job", j.name).Msg("search: nothing wanted")
		return nil
	}

	inQueue := make(map[int64]struct{}, len(queue))
	for _, item := range queue {
		if item.HasDetailItemID {
			inQueue[item.DetailItemID] = struct{}{}
		}
	}

	now := j.nowUnix()
	var eligible []domain.WantedItem
	for _, w := range wanted {
		if _, queued := inQueue[w.DetailItemID]; queued {
			continue
		}
		if w.LastSearchTime != nil && *w.LastSearchTime+int64(j.minDaysBetweenSearches)*secondsPerDay > now {
			continue
		}
		eligible = append(eligible, w)
	}

	if len(eligible) == 0 {
		j.log.Info().Str("job", j.name).Msg("search: nothing eligible after exclusions")
		return nil
	}

	if len(eligible) > j.maxConcurrentSearches {
		eligible = eligible[:j.maxConcurrentSearches]
	}

	ids := make([]int64, len(eligible))
	for i, w := range eligible {
		ids[i] = w.DetailItemID
	}

	j.log.Info().Str("job", j.name).Int("count", len(ids)).Msg("search: issuing command")
	return j.gateway.CommandSearch(ctx, ids)
}
