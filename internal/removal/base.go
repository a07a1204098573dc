// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package removal

import "github.com/declutterd/declutterd/internal/domain"

// base carries the contract fields every job declares (spec §4.4), leaving
// only Predicate to the concrete job.
type base struct {
	name       string
	scope      domain.QueueScope
	blocklist  bool
	maxStrikes *int
}

func (b base) Name() string                 { return b.name }
func (b base) Scope() domain.QueueScope     { return b.scope }
func (b base) BlocklistOnRemoval() bool     { return b.blocklist }
func (b base) MaxStrikes() (int, bool) {
	if b.maxStrikes == nil {
		return 0, false
	}
	return *b.maxStrikes, true
}
