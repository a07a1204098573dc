// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package search

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declutterd/declutterd/internal/curator"
	"github.com/declutterd/declutterd/internal/domain"
)

type fakeGateway struct {
	curator.Gateway
	wanted        []domain.WantedItem
	searchedIDs   []int64
}

func (g *fakeGateway) ListWanted(context.Context, curator.WantedKind) ([]domain.WantedItem, error) {
	return g.wanted, nil
}
func (g *fakeGateway) CommandSearch(_ context.Context, ids []int64) error {
	g.searchedIDs = ids
	return nil
}

func ts(seconds int64) *int64 { return &seconds }

func TestJob_Run_ExcludesQueuedItems(t *testing.T) {
	gw := &fakeGateway{wanted: []domain.WantedItem{{DetailItemID: 1}, {DetailItemID: 2}}}
	j := NewMissing(gw, domain.CuratorMovie, 5, 7, func() int64 { return 1000 }, zerolog.Nop())

	queue := []domain.QueueItem{{DetailItemID: 1, HasDetailItemID: true}}
	err := j.Run(context.Background(), queue)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, gw.searchedIDs)
}

func TestJob_Run_ExcludesRecentlySearched(t *testing.T) {
	gw := &fakeGateway{wanted: []domain.WantedItem{{DetailItemID: 1, LastSearchTime: ts(999)}}}
	j := NewMissing(gw, domain.CuratorMovie, 5, 7, func() int64 { return 1000 }, zerolog.Nop())

	err := j.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, gw.searchedIDs)
}

func TestJob_Run_RespectsMaxConcurrentSearches(t *testing.T) {
	gw := &fakeGateway{wanted: []domain.WantedItem{{DetailItemID: 1}, {DetailItemID: 2}, {DetailItemID: 3}}}
	j := NewMissing(gw, domain.CuratorMovie, 2, 7, func() int64 { return 1000 }, zerolog.Nop())

	err := j.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, gw.searchedIDs, 2)
}

func TestJob_Run_SkipsUnsupportedCuratorKind(t *testing.T) {
	gw := &fakeGateway{wanted: []domain.WantedItem{{DetailItemID: 1}}}
	j := NewMissing(gw, domain.CuratorAdult, 5, 7, func() int64 { return 1000 }, zerolog.Nop())

	err := j.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, gw.searchedIDs)
}

func TestJob_Run_NoWantedItemsIsNotAnError(t *testing.T) {
	gw := &fakeGateway{}
	j := NewCutoffUnmet(gw, domain.CuratorSeries, 5, 7, func() int64 { return 1000 }, zerolog.Nop())

	err := j.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, gw.searchedIDs)
}
