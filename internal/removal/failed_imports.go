// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package removal

import (
	"context"
	"path"

	"github.com/declutterd/declutterd/internal/domain"
)

var importPendingStates = map[string]struct{}{
	"importPending": {},
	"importFailed":  {},
	"importBlocked": {},
}

// FailedImports is remove_failed_imports (spec §4.4): status == "completed"
// AND trackedDownloadStatus == "warning" AND trackedDownloadState in
// {importPending, importFailed, importBlocked}, with at least one
// statusMessage matching a configured glob pattern (strict glob match,
// spec §9 open-question resolution — see DESIGN.md). Blocklist true,
// strikes used.
type FailedImports struct {
	base
	messagePatterns []string
}

// NewFailedImports constructs the job with the configured strike threshold
// and glob patterns (default ["*"] matches every message).
func NewFailedImports(maxStrikes int, messagePatterns []string) *FailedImports {
	if len(messagePatterns) == 0 {
		messagePatterns = []string{"*"}
	}
	return &FailedImports{
		base:            base{name: "remove_failed_imports", scope: domain.ScopeNormal, blocklist: true, maxStrikes: &maxStrikes},
		messagePatterns: messagePatterns,
	}
}

func (j *FailedImports) Predicate(_ context.Context, items []domain.QueueItem) ([]domain.QueueItem, error) {
	var out []domain.QueueItem
	for _, item := range items {
		if item.Status != "completed" || item.TrackedDownloadStatus != "warning" {
			continue
		}
		if _, ok := importPendingStates[item.TrackedDownloadState]; !ok {
			continue
		}

		var matched []string
		for _, msg := range item.StatusMessages {
			if j.matchesAny(msg) {
				matched = append(matched, msg)
			}
		}
		if len(matched) == 0 {
			continue
		}

		item.RemovalMessages = matched
		out = append(out, item)
	}
	return out, nil
}

func (j *FailedImports) matchesAny(msg string) bool {
	for _, pattern := range j.messagePatterns {
		// path.Match treats "/" as a path separator "*" cannot cross, which
		// would wrongly reject the common "matches everything" default
		// against messages that happen to contain a file path.
		if pattern == "*" {
			return true
		}
		if ok, err := path.Match(pattern, msg); err == nil && ok {
			return true
		}
	}
	return false
}
