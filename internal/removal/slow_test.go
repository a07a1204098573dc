// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package removal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declutterd/declutterd/internal/domain"
	"github.com/declutterd/declutterd/internal/downloadclient"
)

type fakeSlowClient struct {
	downloadclient.Client
	items        []downloadclient.Item
	bandwidthUtl float64
}

func (c *fakeSlowClient) ListItems(context.Context, []string) ([]downloadclient.Item, error) {
	return c.items, nil
}
func (c *fakeSlowClient) GlobalBandwidthUtilization(context.Context) (float64, error) {
	return c.bandwidthUtl, nil
}

type fakeRegistry struct {
	clients map[string]downloadclient.Client
}

func (r *fakeRegistry) LookupTorrentP2P(name string) (downloadclient.Client, bool) {
	c, ok := r.clients[name]
	return c, ok
}

type fakeProgressStore struct {
	samples map[string]domain.ProgressSample
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{samples: map[string]domain.ProgressSample{}}
}
func (s *fakeProgressStore) PreviousProgress(id string) (domain.ProgressSample, bool) {
	v, ok := s.samples[id]
	return v, ok
}
func (s *fakeProgressStore) RecordProgress(sample domain.ProgressSample) {
	s.samples[sample.DownloadID] = sample
}

type fakePauser struct {
	paused map[string]string
}

func newFakePauser() *fakePauser { return &fakePauser{paused: map[string]string{}} }
func (p *fakePauser) Pause(_, downloadID, _, reason string) { p.paused[downloadID] = reason }
func (p *fakePauser) Unpause(_, downloadID string)          { delete(p.paused, downloadID) }

func TestSlow_Predicate_FirstCycleSkipsWithNoDelta(t *testing.T) {
	client := &fakeSlowClient{items: []downloadclient.Item{{ID: "dl1", State: "downloading", CompletedBytes: 1000}}}
	registry := &fakeRegistry{clients: map[string]downloadclient.Client{"qbit": client}}
	progress := newFakeProgressStore()
	pauser := newFakePauser()

	j := NewSlow(3, 100, time.Minute, registry, progress, pauser, func() int64 { return 1 })
	items := []domain.QueueItem{{DownloadID: "dl1", Size: 2000, SizeLeft: 1000, Status: "downloading", Protocol: domain.ProtocolTorrent, DownloadClientName: "qbit"}}

	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, ok := progress.PreviousProgress("dl1")
	assert.True(t, ok, "first cycle must still record the sample")
}

func TestSlow_Predicate_SlowSpeedOffends(t *testing.T) {
	client := &fakeSlowClient{items: []downloadclient.Item{{ID: "dl1", State: "downloading", CompletedBytes: 1000}}}
	registry := &fakeRegistry{clients: map[string]downloadclient.Client{"qbit": client}}
	progress := newFakeProgressStore()
	progress.samples["dl1"] = domain.ProgressSample{DownloadID: "dl1", BytesDownloaded: 0, SampledAt: 0}
	pauser := newFakePauser()

	j := NewSlow(3, 100, time.Minute, registry, progress, pauser, func() int64 { return 60 })
	items := []domain.QueueItem{{DownloadID: "dl1", Size: 2000, SizeLeft: 1000, Status: "downloading", Protocol: domain.ProtocolTorrent, DownloadClientName: "qbit"}}

	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestSlow_Predicate_BandwidthSaturationPauses(t *testing.T) {
	client := &fakeSlowClient{items: []downloadclient.Item{{ID: "dl1", State: "downloading", CompletedBytes: 1000}}, bandwidthUtl: 0.95}
	registry := &fakeRegistry{clients: map[string]downloadclient.Client{"qbit": client}}
	progress := newFakeProgressStore()
	pauser := newFakePauser()

	j := NewSlow(3, 100, time.Minute, registry, progress, pauser, func() int64 { return 1 })
	items := []domain.QueueItem{{DownloadID: "dl1", Size: 2000, SizeLeft: 1000, Status: "downloading", Protocol: domain.ProtocolTorrent, DownloadClientName: "qbit"}}

	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, reasonHighBandwidthUsage, pauser.paused["dl1"])
}

func TestSlow_Predicate_CompletedButStuckSkips(t *testing.T) {
	registry := &fakeRegistry{clients: map[string]downloadclient.Client{}}
	progress := newFakeProgressStore()
	pauser := newFakePauser()

	j := NewSlow(3, 100, time.Minute, registry, progress, pauser, func() int64 { return 1 })
	items := []domain.QueueItem{{DownloadID: "dl1", Size: 2000, SizeLeft: 0, Status: "downloading", Protocol: domain.ProtocolTorrent, DownloadClientName: "qbit"}}

	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	assert.Empty(t, out)
}

// TestSlow_Predicate_RecordsProgressThroughSaturatedCycles reproduces
// spec §8 scenario S6: two saturated cycles must still leave a progress
// sample behind, so once utilization drops the third cycle can compute a
// speed delta (here 0 KB/s, since no bytes moved while paused) and offend
// immediately, rather than being treated as a fresh first-cycle sample.
func TestSlow_Predicate_RecordsProgressThroughSaturatedCycles(t *testing.T) {
	client := &fakeSlowClient{items: []downloadclient.Item{{ID: "dl1", State: "downloading", CompletedBytes: 1000}}, bandwidthUtl: 0.95}
	registry := &fakeRegistry{clients: map[string]downloadclient.Client{"qbit": client}}
	progress := newFakeProgressStore()
	pauser := newFakePauser()
	now := int64(0)

	j := NewSlow(3, 100, time.Minute, registry, progress, pauser, func() int64 { return now })
	items := []domain.QueueItem{{DownloadID: "dl1", Size: 2000, SizeLeft: 1000, Status: "downloading", Protocol: domain.ProtocolTorrent, DownloadClientName: "qbit"}}

	// Cycle 1: saturated, paused, but the first sample is still recorded.
	now = 0
	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	assert.Empty(t, out)
	sample, ok := progress.PreviousProgress("dl1")
	require.True(t, ok, "cycle 1 must record a progress sample even though saturated")
	assert.Equal(t, int64(1000), sample.BytesDownloaded)
	assert.Equal(t, reasonHighBandwidthUsage, pauser.paused["dl1"])

	// Cycle 2: still saturated, still paused, sample refreshed again.
	now = 60
	out, err = j.Predicate(context.Background(), items)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, reasonHighBandwidthUsage, pauser.paused["dl1"])

	// Cycle 3: utilization drops. PreviousProgress must already hold a
	// sample from cycle 2, so the 0 KB/s delta offends immediately
	// instead of being skipped as a first-cycle read.
	client.bandwidthUtl = 0.1
	now = 120
	out, err = j.Predicate(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, out, 1, "cycle 3 must offend on its first unsaturated read, not be treated as a fresh baseline")
	_, stillPaused := pauser.paused["dl1"]
	assert.False(t, stillPaused, "unpause must clear the saturation pause once utilization drops")
}

func TestSlow_Predicate_ExemptsUsenet(t *testing.T) {
	registry := &fakeRegistry{clients: map[string]downloadclient.Client{}}
	progress := newFakeProgressStore()
	pauser := newFakePauser()

	j := NewSlow(3, 100, time.Minute, registry, progress, pauser, func() int64 { return 1 })
	items := []domain.QueueItem{{DownloadID: "dl1", Size: 2000, SizeLeft: 1000, Status: "downloading", Protocol: domain.ProtocolUsenet, DownloadClientName: "sab"}}

	out, err := j.Predicate(context.Background(), items)
	require.NoError(t, err)
	assert.Empty(t, out)
}
