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

func TestFailedDownloads_Predicate(t *testing.T) {
	j := NewFailedDownloads()
	items := []domain.QueueItem{
		{DownloadID: "dl1", Status: "failed"},
		{DownloadID: "dl2", Status: "queued"},
	}
	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "dl1", out[0].DownloadID)
}

func TestStalled_Predicate(t *testing.T) {
	j := NewStalled(3)
	items := []domain.QueueItem{
		{DownloadID: "dl1", Status: "warning", ErrorMessage: stalledErrorMessage},
		{DownloadID: "dl2", Status: "warning", ErrorMessage: "something else"},
	}
	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "dl1", out[0].DownloadID)
	maxStrikes, ok := j.MaxStrikes()
	assert.True(t, ok)
	assert.Equal(t, 3, maxStrikes)
}

func TestFailedImports_Predicate_DefaultGlobMatchesEverything(t *testing.T) {
	j := NewFailedImports(3, nil)
	items := []domain.QueueItem{
		{
			DownloadID: "dl1", Status: "completed", TrackedDownloadStatus: "warning",
			TrackedDownloadState: "importFailed", StatusMessages: []string{"could not import /data/movie.mkv"},
		},
		{DownloadID: "dl2", Status: "completed", TrackedDownloadStatus: "warning", TrackedDownloadState: "downloading"},
	}
	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"could not import /data/movie.mkv"}, out[0].RemovalMessages)
}

func TestFailedImports_Predicate_SpecificGlobFiltersMessages(t *testing.T) {
	j := NewFailedImports(3, []string{"One or more episodes expected*"})
	items := []domain.QueueItem{
		{
			DownloadID: "dl1", Status: "completed", TrackedDownloadStatus: "warning",
			TrackedDownloadState: "importPending", StatusMessages: []string{"unrelated message"},
		},
	}
	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMissingFiles_Predicate_WarningStatus(t *testing.T) {
	j := NewMissingFiles()
	items := []domain.QueueItem{
		{DownloadID: "dl1", Status: "warning", ErrorMessage: "Some files are missing"},
	}
	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestMissingFiles_Predicate_CompletedStatusPrefix(t *testing.T) {
	j := NewMissingFiles()
	items := []domain.QueueItem{
		{DownloadID: "dl1", Status: "completed", StatusMessages: []string{"No files found are eligible for import in /data/show"}},
	}
	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestOrphans_Predicate_ReturnsEverything(t *testing.T) {
	j := NewOrphans()
	items := []domain.QueueItem{{DownloadID: "dl1"}, {DownloadID: "dl2"}}
	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

type fakeMonitoredChecker struct {
	monitored map[int64]bool
}

func (f *fakeMonitoredChecker) IsMonitored(_ context.Context, id int64) (bool, error) {
	return f.monitored[id], nil
}

func TestUnmonitored_Predicate_RequiresWholeGroupUnmonitored(t *testing.T) {
	checker := &fakeMonitoredChecker{monitored: map[int64]bool{10: false, 20: true}}
	j := NewUnmonitored(checker)

	items := []domain.QueueItem{
		{DownloadID: "dl1", DetailItemID: 10, HasDetailItemID: true},
		{DownloadID: "dl1", DetailItemID: 10, HasDetailItemID: true},
		{DownloadID: "dl3", DetailItemID: 20, HasDetailItemID: true},
	}
	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, item := range out {
		assert.Equal(t, "dl1", item.DownloadID)
	}
}

func TestUnmonitored_Predicate_MixedGroupIsSpared(t *testing.T) {
	checker := &fakeMonitoredChecker{monitored: map[int64]bool{10: false, 30: true}}
	j := NewUnmonitored(checker)

	items := []domain.QueueItem{
		{DownloadID: "dl1", DetailItemID: 10, HasDetailItemID: true},
		{DownloadID: "dl1", DetailItemID: 30, HasDetailItemID: true}, // same group, monitored
	}
	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	assert.Empty(t, out)
}
