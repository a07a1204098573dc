// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package removal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declutterd/declutterd/internal/domain"
)

type fakeQueueFetcher struct {
	items []domain.QueueItem
}

func (f *fakeQueueFetcher) Get(context.Context, domain.QueueScope) ([]domain.QueueItem, error) {
	return f.items, nil
}

type fakeProtectionFilter struct {
	protected map[string]bool
}

func (f *fakeProtectionFilter) FilterProtected(groups []domain.DownloadGrouping) []domain.DownloadGrouping {
	var out []domain.DownloadGrouping
	for _, g := range groups {
		if !f.protected[g.DownloadID] {
			out = append(out, g)
		}
	}
	return out
}

type fakeStrikeFilter struct {
	calls int
}

func (f *fakeStrikeFilter) Apply(_ string, _ int, offending []domain.DownloadGrouping, _ []domain.QueueItem) []domain.DownloadGrouping {
	f.calls++
	return offending
}

type fakeDispatcher struct {
	dispatched []domain.DownloadGrouping
	blocklist  bool
}

func (f *fakeDispatcher) Dispatch(_ context.Context, groups []domain.DownloadGrouping, blocklist bool) {
	f.dispatched = groups
	f.blocklist = blocklist
}

func TestEngine_Run_FullPipeline(t *testing.T) {
	fetcher := &fakeQueueFetcher{items: []domain.QueueItem{
		{DownloadID: "dl1", Status: "failed"},
		{DownloadID: "dl2", Status: "queued"},
	}}
	protection := &fakeProtectionFilter{protected: map[string]bool{}}
	strikes := &fakeStrikeFilter{}
	dispatcher := &fakeDispatcher{}

	engine := NewEngine(fetcher, protection, strikes, dispatcher)
	err := engine.Run(context.Background(), NewFailedDownloads())
	require.NoError(t, err)

	require.Len(t, dispatcher.dispatched, 1)
	assert.Equal(t, "dl1", dispatcher.dispatched[0].DownloadID)
	assert.Equal(t, 0, strikes.calls, "job without maxStrikes must skip the strike filter")
}

func TestEngine_Run_ProtectedGroupIsFiltered(t *testing.T) {
	fetcher := &fakeQueueFetcher{items: []domain.QueueItem{{DownloadID: "dl1", Status: "failed"}}}
	protection := &fakeProtectionFilter{protected: map[string]bool{"dl1": true}}
	strikes := &fakeStrikeFilter{}
	dispatcher := &fakeDispatcher{}

	engine := NewEngine(fetcher, protection, strikes, dispatcher)
	err := engine.Run(context.Background(), NewFailedDownloads())
	require.NoError(t, err)

	assert.Empty(t, dispatcher.dispatched)
}

func TestEngine_Run_InvokesStrikeFilterWhenConfigured(t *testing.T) {
	fetcher := &fakeQueueFetcher{items: []domain.QueueItem{
		{DownloadID: "dl1", Status: "warning", ErrorMessage: stalledErrorMessage},
	}}
	protection := &fakeProtectionFilter{protected: map[string]bool{}}
	strikes := &fakeStrikeFilter{}
	dispatcher := &fakeDispatcher{}

	engine := NewEngine(fetcher, protection, strikes, dispatcher)
	err := engine.Run(context.Background(), NewStalled(3))
	require.NoError(t, err)

	assert.Equal(t, 1, strikes.calls)
	assert.True(t, dispatcher.blocklist)
}
