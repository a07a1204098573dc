// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package removal

import (
	"context"

	"github.com/declutterd/declutterd/internal/domain"
)

// monitoredChecker is the subset of curator.Gateway Unmonitored needs.
type monitoredChecker interface {
	IsMonitored(ctx context.Context, detailItemID int64) (bool, error)
}

// Unmonitored is remove_unmonitored (spec §4.4): detailItemId is set AND
// isMonitored(detailItemId) == false, but the action applies only if ALL
// QueueItems sharing the same downloadId are unmonitored (grouping
// atomicity, spec §3 invariant 1). Blocklist false, no strikes.
type Unmonitored struct {
	base
	gateway monitoredChecker
}

// NewUnmonitored constructs the job bound to the curator's gateway.
func NewUnmonitored(gw monitoredChecker) *Unmonitored {
	return &Unmonitored{base: base{name: "remove_unmonitored", scope: domain.ScopeNormal}, gateway: gw}
}

func (j *Unmonitored) Predicate(ctx context.Context, items []domain.QueueItem) ([]domain.QueueItem, error) {
	monitored := make(map[int64]bool)
	for _, item := range items {
		if !item.HasDetailItemID {
			continue
		}
		if _, cached := monitored[item.DetailItemID]; cached {
			continue
		}
		ok, err := j.gateway.IsMonitored(ctx, item.DetailItemID)
		if err != nil {
			return nil, err
		}
		monitored[item.DetailItemID] = ok
	}

	// Per-downloadId eligibility: every item sharing a downloadId must have
	// a detailItemId and be unmonitored for the group to qualify.
	eligible := make(map[string]bool)
	seen := make(map[string]bool)
	for _, item := range items {
		if !seen[item.DownloadID] {
			seen[item.DownloadID] = true
			eligible[item.DownloadID] = true
		}
		if !item.HasDetailItemID || monitored[item.DetailItemID] {
			eligible[item.DownloadID] = false
		}
	}

	var out []domain.QueueItem
	for _, item := range items {
		if eligible[item.DownloadID] {
			out = append(out, item)
		}
	}
	return out, nil
}
