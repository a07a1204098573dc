// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package timeouts centralizes the bounded-timeout constants spec §5
// requires for every outbound HTTP call ("every HTTP call has a bounded
// timeout (default 15s)").
package timeouts

import "time"

const (
	// DefaultCallTimeout bounds a single curator/download-client HTTP call.
	DefaultCallTimeout = 15 * time.Second

	// MaxCallTimeout is the ceiling AdaptiveCycleTimeout will return
	// regardless of fleet size.
	MaxCallTimeout = 60 * time.Second

	// PerCuratorTimeout is added to the cycle-wide timeout budget for each
	// additional curator when estimating a whole-cycle deadline.
	PerCuratorTimeout = 5 * time.Second
)

// AdaptiveCycleTimeout scales a cycle-wide deadline with the number of
// configured curators, capped at MaxCallTimeout. Used by the scheduler to
// bound a single tick when curators are processed sequentially (spec §5).
func AdaptiveCycleTimeout(curatorCount int) time.Duration {
	if curatorCount <= 1 {
		return DefaultCallTimeout
	}
	total := DefaultCallTimeout + time.Duration(curatorCount-1)*PerCuratorTimeout
	if total > MaxCallTimeout {
		return MaxCallTimeout
	}
	return total
}
