// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package removal

import (
	"context"
	"strings"

	"github.com/declutterd/declutterd/internal/domain"
)

// MetadataMissing is remove_metadata_missing (spec §4.4): status ==
// "queued" AND errorMessage is the client's "downloading metadata" message.
// Blocklist true, strikes used.
type MetadataMissing struct{ base }

// NewMetadataMissing constructs the job with the configured strike
// threshold.
func NewMetadataMissing(maxStrikes int) *MetadataMissing {
	return &MetadataMissing{base{name: "remove_metadata_missing", scope: domain.ScopeNormal, blocklist: true, maxStrikes: &maxStrikes}}
}

func (j *MetadataMissing) Predicate(_ context.Context, items []domain.QueueItem) ([]domain.QueueItem, error) {
	var out []domain.QueueItem
	for _, item := range items {
		if item.Status == "queued" && strings.Contains(item.ErrorMessage, "downloading metadata") {
			out = append(out, item)
		}
	}
	return out, nil
}
