// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package timeouts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConstants(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 15*time.Second, DefaultCallTimeout)
	assert.Equal(t, 60*time.Second, MaxCallTimeout)
	assert.Greater(t, MaxCallTimeout, DefaultCallTimeout)
}

func TestAdaptiveCycleTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		curatorCount  int
		wantTimeout   time.Duration
		wantCapped    bool
	}{
		{name: "zero curators returns default", curatorCount: 0, wantTimeout: DefaultCallTimeout},
		{name: "one curator returns default", curatorCount: 1, wantTimeout: DefaultCallTimeout},
		{name: "two curators adds one increment", curatorCount: 2, wantTimeout: DefaultCallTimeout + PerCuratorTimeout},
		{name: "five curators adds four increments", curatorCount: 5, wantTimeout: DefaultCallTimeout + 4*PerCuratorTimeout},
		{name: "large fleet capped at max", curatorCount: 100, wantTimeout: MaxCallTimeout, wantCapped: true},
		{name: "negative curator count returns default", curatorCount: -5, wantTimeout: DefaultCallTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := AdaptiveCycleTimeout(tt.curatorCount)
			assert.Equal(t, tt.wantTimeout, got)
			if tt.wantCapped {
				assert.Equal(t, MaxCallTimeout, got)
			}
		})
	}
}
