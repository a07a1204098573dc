// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package removal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declutterd/declutterd/internal/domain"
	"github.com/declutterd/declutterd/internal/downloadclient"
)

type fakeBadFilesClient struct {
	downloadclient.Client
	items            []downloadclient.Item
	files            []downloadclient.File
	stoppedIndexes   []int
}

func (c *fakeBadFilesClient) ListItems(context.Context, []string) ([]downloadclient.Item, error) {
	return c.items, nil
}
func (c *fakeBadFilesClient) ListItemFiles(context.Context, string) ([]downloadclient.File, error) {
	return c.files, nil
}
func (c *fakeBadFilesClient) SetFilePriority(_ context.Context, _ string, fileIndex int, priority int) error {
	if priority == 0 {
		c.stoppedIndexes = append(c.stoppedIndexes, fileIndex)
	}
	return nil
}

type fakeExtensionTracker struct {
	checked map[string]bool
}

func newFakeExtensionTracker() *fakeExtensionTracker { return &fakeExtensionTracker{checked: map[string]bool{}} }
func (t *fakeExtensionTracker) WasExtensionChecked(id string) bool { return t.checked[id] }
func (t *fakeExtensionTracker) MarkExtensionChecked(id string)     { t.checked[id] = true }
func (t *fakeExtensionTracker) ClearExtensionChecked(id string)    { delete(t.checked, id) }

func TestBadFiles_Predicate_StopsDisallowedExtensionAndOffendsWhenAllStopped(t *testing.T) {
	client := &fakeBadFilesClient{
		items: []downloadclient.Item{{ID: "dl1", State: "downloading", Availability: 0.5}},
		files: []downloadclient.File{
			{Index: 0, Path: "/data/movie.exe", Priority: 1, Availability: 1, Progress: 1, Size: 1000},
		},
	}
	registry := &fakeRegistry{clients: map[string]downloadclient.Client{"qbit": client}}
	tracker := newFakeExtensionTracker()

	j := NewBadFiles(registry, tracker, false, nil)
	items := []domain.QueueItem{{DownloadID: "dl1", Protocol: domain.ProtocolTorrent, DownloadClientName: "qbit"}}

	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []int{0}, client.stoppedIndexes)
	assert.True(t, tracker.WasExtensionChecked("dl1"))
}

func TestBadFiles_Predicate_AllowedExtensionNotStopped(t *testing.T) {
	client := &fakeBadFilesClient{
		items: []downloadclient.Item{{ID: "dl1", State: "downloading", Availability: 1}},
		files: []downloadclient.File{
			{Index: 0, Path: "/data/movie.mkv", Priority: 1, Availability: 1, Progress: 1, Size: 1000},
		},
	}
	registry := &fakeRegistry{clients: map[string]downloadclient.Client{"qbit": client}}
	tracker := newFakeExtensionTracker()

	j := NewBadFiles(registry, tracker, false, nil)
	items := []domain.QueueItem{{DownloadID: "dl1", Protocol: domain.ProtocolTorrent, DownloadClientName: "qbit"}}

	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, client.stoppedIndexes)
}

func TestBadFiles_Predicate_SkipsAlreadyCheckedWithFullAvailability(t *testing.T) {
	client := &fakeBadFilesClient{
		items: []downloadclient.Item{{ID: "dl1", State: "downloading", Availability: 1}},
	}
	registry := &fakeRegistry{clients: map[string]downloadclient.Client{"qbit": client}}
	tracker := newFakeExtensionTracker()
	tracker.MarkExtensionChecked("dl1")

	j := NewBadFiles(registry, tracker, false, nil)
	items := []domain.QueueItem{{DownloadID: "dl1", Protocol: domain.ProtocolTorrent, DownloadClientName: "qbit"}}

	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestBadFiles_Predicate_ReChecksWhenAvailabilityDrops(t *testing.T) {
	client := &fakeBadFilesClient{
		items: []downloadclient.Item{{ID: "dl1", State: "downloading", Availability: 0.4}},
		files: []downloadclient.File{{Index: 0, Path: "/data/movie.mkv", Priority: 0, Availability: 0.4, Progress: 0.4, Size: 1000}},
	}
	registry := &fakeRegistry{clients: map[string]downloadclient.Client{"qbit": client}}
	tracker := newFakeExtensionTracker()
	tracker.MarkExtensionChecked("dl1")

	j := NewBadFiles(registry, tracker, false, nil)
	items := []domain.QueueItem{{DownloadID: "dl1", Protocol: domain.ProtocolTorrent, DownloadClientName: "qbit"}}

	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, out, 1, "availability below 1 must trigger a re-check even if previously checked")
}

func TestBadFiles_MatchesBadKeyword_IsCaseInsensitiveLiteralSubstring(t *testing.T) {
	j := NewBadFiles(nil, nil, false, []string{"sample"})

	assert.True(t, j.matchesBadKeyword("/data/Movie.Title.SAMPLE.mkv"), "case-insensitive literal containment must match")
	assert.False(t, j.matchesBadKeyword("/data/Showcase.Ample.Footage.mkv"),
		"letters s,a,m,p,l,e appear in order but not contiguously — must not match as a literal substring")
}

func TestBadFiles_Predicate_BadKeywordStopsFileDespiteAllowedExtension(t *testing.T) {
	client := &fakeBadFilesClient{
		items: []downloadclient.Item{{ID: "dl1", State: "downloading", Availability: 1}},
		files: []downloadclient.File{
			{Index: 0, Path: "/data/Movie.Title.Sample.mkv", Priority: 1, Availability: 1, Progress: 1, Size: 1000},
		},
	}
	registry := &fakeRegistry{clients: map[string]downloadclient.Client{"qbit": client}}
	tracker := newFakeExtensionTracker()

	j := NewBadFiles(registry, tracker, false, nil)
	items := []domain.QueueItem{{DownloadID: "dl1", Protocol: domain.ProtocolTorrent, DownloadClientName: "qbit"}}

	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []int{0}, client.stoppedIndexes)
}

func TestBadFiles_Predicate_KeepArchivesAllowsArchiveExtension(t *testing.T) {
	client := &fakeBadFilesClient{
		items: []downloadclient.Item{{ID: "dl1", State: "downloading", Availability: 1}},
		files: []downloadclient.File{{Index: 0, Path: "/data/bonus.rar", Priority: 1, Availability: 1, Progress: 1, Size: 1000}},
	}
	registry := &fakeRegistry{clients: map[string]downloadclient.Client{"qbit": client}}
	tracker := newFakeExtensionTracker()

	j := NewBadFiles(registry, tracker, true, nil)
	items := []domain.QueueItem{{DownloadID: "dl1", Protocol: domain.ProtocolTorrent, DownloadClientName: "qbit"}}

	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, client.stoppedIndexes)
}
