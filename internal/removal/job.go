// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package removal implements the RemovalJob family (spec §4.3/§4.4): nine
// independent predicates sharing a common contract — predicate, then
// grouping, then protection filtering, then an optional strike filter,
// then action dispatch.
package removal

import (
	"context"

	"github.com/declutterd/declutterd/internal/domain"
)

// Job is one removal job's contract (spec §4.4).
type Job interface {
	Name() string
	Scope() domain.QueueScope
	BlocklistOnRemoval() bool
	// MaxStrikes returns the configured strike threshold and whether one is
	// configured at all; absent means act immediately on first detection.
	MaxStrikes() (int, bool)
	// Predicate returns the offending subset of queueItems, a pure filter
	// over the scope's fetched queue.
	Predicate(ctx context.Context, queueItems []domain.QueueItem) ([]domain.QueueItem, error)
}

// queueFetcher is the subset of *queue.Fetcher the Engine needs.
type queueFetcher interface {
	Get(ctx context.Context, scope domain.QueueScope) ([]domain.QueueItem, error)
}

// protectionFilter is the subset of *tracker.Tracker the Engine needs.
type protectionFilter interface {
	FilterProtected(groups []domain.DownloadGrouping) []domain.DownloadGrouping
}

// strikeFilter is the subset of *strike.Filter the Engine needs.
type strikeFilter interface {
	Apply(jobName string, maxStrikes int, offending []domain.DownloadGrouping, queue []domain.QueueItem) []domain.DownloadGrouping
}

// dispatcher is the subset of *action.Dispatcher the Engine needs.
type dispatcher interface {
	Dispatch(ctx context.Context, groups []domain.DownloadGrouping, blocklist bool)
}

// Engine runs the fixed outer loop of spec §4.4 for one job against one
// curator's queue.
type Engine struct {
	fetcher    queueFetcher
	tracker    protectionFilter
	strikes    strikeFilter
	dispatcher dispatcher
}

// NewEngine constructs an Engine bound to one curator's collaborators.
func NewEngine(fetcher queueFetcher, tr protectionFilter, sf strikeFilter, d dispatcher) *Engine {
	return &Engine{fetcher: fetcher, tracker: tr, strikes: sf, dispatcher: d}
}

// Run executes job's fixed outer loop (spec §4.4 pseudocode):
//
//	queue = QueueFetcher.get(job.scope)
//	offending_items = job.predicate(queue)
//	offending_groups = groupByDownloadId(offending_items)
//	offending_groups = offending_groups \ Tracker.protected
//	if job.maxStrikes:
//	    offending_groups = StrikeFilter.retainOnlyStrikeExceeded(offending_groups, queue)
//	ActionDispatcher.dispatch(offending_groups, blocklist=job.blocklistOnRemoval)
func (e *Engine) Run(ctx context.Context, job Job) error {
	queue, err := e.fetcher.Get(ctx, job.Scope())
	if err != nil {
		return err
	}

	offendingItems, err := job.Predicate(ctx, queue)
	if err != nil {
		return err
	}

	groups := domain.GroupByDownloadID(offendingItems)
	groups = e.tracker.FilterProtected(groups)

	if maxStrikes, ok := job.MaxStrikes(); ok {
		groups = e.strikes.Apply(job.Name(), maxStrikes, groups, queue)
	}

	e.dispatcher.Dispatch(ctx, groups, job.BlocklistOnRemoval())
	return nil
}
