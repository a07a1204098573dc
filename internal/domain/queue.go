// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// QueueScope selects which slice of a curator's queue a fetch returns.
// Orphans is defined as the strict set difference Full \ Normal (spec §3
// invariant 5), computed by the caller rather than requested directly from
// the curator.
type QueueScope string

const (
	ScopeNormal  QueueScope = "normal"
	ScopeFull    QueueScope = "full"
	ScopeOrphans QueueScope = "orphans"
)

// Transient statuses are invisible to every removal predicate (spec §4.3).
const (
	StatusDelay                     = "delay"
	StatusDownloadClientUnavailable = "downloadClientUnavailable"
)

// QueueItem is one normalized line in a curator's download queue.
type QueueItem struct {
	QueueEntryID         int64
	DownloadID           string
	DetailItemID         int64
	HasDetailItemID       bool
	Title                string
	Size                 int64
	SizeLeft             int64
	Status               string
	TrackedDownloadStatus string
	TrackedDownloadState  string
	StatusMessages       []string
	ErrorMessage         string
	Protocol             Protocol
	DownloadClientName   string
	Indexer              string

	// RemovalMessages is populated by a predicate (currently only
	// remove_failed_imports) with the subset of StatusMessages that matched
	// a configured glob and is surfaced as a diagnostic by ActionDispatcher.
	RemovalMessages []string
}

// DownloadGrouping is every QueueItem sharing a DownloadID: the unit an
// ActionDispatcher acts on (spec §3 invariant 1 — grouping atomicity).
type DownloadGrouping struct {
	DownloadID string
	Items      []QueueItem
}

// Title returns the inherited title from the first item in the group.
func (g DownloadGrouping) Title() string {
	if len(g.Items) == 0 {
		return ""
	}
	return g.Items[0].Title
}

// Protocol returns the inherited protocol from the first item in the group.
func (g DownloadGrouping) Protocol() Protocol {
	if len(g.Items) == 0 {
		return ""
	}
	return g.Items[0].Protocol
}

// DownloadClientName returns the inherited download-client name from the
// first item in the group.
func (g DownloadGrouping) DownloadClientName() string {
	if len(g.Items) == 0 {
		return ""
	}
	return g.Items[0].DownloadClientName
}

// FirstQueueEntryID returns the queue entry id ActionDispatcher uses for
// removeQueueEntry calls (spec §4.8 step 3 "remove").
func (g DownloadGrouping) FirstQueueEntryID() int64 {
	if len(g.Items) == 0 {
		return 0
	}
	return g.Items[0].QueueEntryID
}

// RemovalMessages collects every distinct removal message across the group.
func (g DownloadGrouping) RemovalMessages() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, item := range g.Items {
		for _, msg := range item.RemovalMessages {
			if _, ok := seen[msg]; ok {
				continue
			}
			seen[msg] = struct{}{}
			out = append(out, msg)
		}
	}
	return out
}

// GroupByDownloadID groups a set of offending QueueItems by DownloadID,
// preserving first-seen order for stable logging.
func GroupByDownloadID(items []QueueItem) []DownloadGrouping {
	index := make(map[string]int, len(items))
	var groups []DownloadGrouping

	for _, item := range items {
		if item.DownloadID == "" {
			continue
		}
		if i, ok := index[item.DownloadID]; ok {
			groups[i].Items = append(groups[i].Items, item)
			continue
		}
		index[item.DownloadID] = len(groups)
		groups = append(groups, DownloadGrouping{
			DownloadID: item.DownloadID,
			Items:      []QueueItem{item},
		})
	}

	return groups
}

// DiffByQueueEntryID returns the items in full whose QueueEntryID does not
// appear in normal — the strict set difference backing remove_orphans and
// QueueFetcher's orphans scope (spec §3 invariant 5).
func DiffByQueueEntryID(full, normal []QueueItem) []QueueItem {
	seen := make(map[int64]struct{}, len(normal))
	for _, item := range normal {
		seen[item.QueueEntryID] = struct{}{}
	}

	var diff []QueueItem
	for _, item := range full {
		if _, ok := seen[item.QueueEntryID]; !ok {
			diff = append(diff, item)
		}
	}
	return diff
}
