// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package removal

import (
	"context"

	"github.com/declutterd/declutterd/internal/domain"
)

// Orphans is remove_orphans (spec §4.4): scope orphans, every item present
// is offending by definition of the set difference Engine.Run's
// QueueFetcher already computed. Blocklist false, no strikes.
type Orphans struct{ base }

// NewOrphans constructs the job.
func NewOrphans() *Orphans {
	return &Orphans{base{name: "remove_orphans", scope: domain.ScopeOrphans}}
}

func (j *Orphans) Predicate(_ context.Context, items []domain.QueueItem) ([]domain.QueueItem, error) {
	return items, nil
}
