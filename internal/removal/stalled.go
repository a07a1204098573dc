// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package removal

import (
	"context"

	"github.com/declutterd/declutterd/internal/domain"
)

const stalledErrorMessage = "The download is stalled with no connections"

// Stalled is remove_stalled (spec §4.4): status == "warning" AND
// errorMessage == stalledErrorMessage. Blocklist true, strikes used.
type Stalled struct{ base }

// NewStalled constructs the job with the configured strike threshold.
func NewStalled(maxStrikes int) *Stalled {
	return &Stalled{base{name: "remove_stalled", scope: domain.ScopeNormal, blocklist: true, maxStrikes: &maxStrikes}}
}

func (j *Stalled) Predicate(_ context.Context, items []domain.QueueItem) ([]domain.QueueItem, error) {
	var out []domain.QueueItem
	for _, item := range items {
		if item.Status == "warning" && item.ErrorMessage == stalledErrorMessage {
			out = append(out, item)
		}
	}
	return out, nil
}
