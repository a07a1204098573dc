// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package removal

import (
	"context"

	"github.com/declutterd/declutterd/internal/domain"
)

// FailedDownloads is remove_failed_downloads (spec §4.4): status == "failed",
// scope normal, no blocklist, no strikes.
type FailedDownloads struct{ base }

// NewFailedDownloads constructs the job.
func NewFailedDownloads() *FailedDownloads {
	return &FailedDownloads{base{name: "remove_failed_downloads", scope: domain.ScopeNormal}}
}

func (j *FailedDownloads) Predicate(_ context.Context, items []domain.QueueItem) ([]domain.QueueItem, error) {
	var out []domain.QueueItem
	for _, item := range items {
		if item.Status == "failed" {
			out = append(out, item)
		}
	}
	return out, nil
}
