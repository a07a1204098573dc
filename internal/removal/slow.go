// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package removal

import (
	"context"
	"time"

	"github.com/declutterd/declutterd/internal/domain"
	"github.com/declutterd/declutterd/internal/downloadclient"
)

const bandwidthSaturationThreshold = 0.8

const reasonHighBandwidthUsage = "High Bandwidth Usage"

// downloadingStates are the downloadclient.Item.State values that count as
// "currently downloading" for remove_slow's skip condition.
var downloadingStates = map[string]struct{}{
	"downloading": {},
	"forcedDL":    {},
	"stalledDL":   {},
}

// progressStore is the subset of *tracker.Tracker remove_slow needs for
// its per-cycle speed delta.
type progressStore interface {
	PreviousProgress(downloadID string) (domain.ProgressSample, bool)
	RecordProgress(sample domain.ProgressSample)
}

// pauser is the subset of *strike.Filter remove_slow needs to
// saturate-pause the strike tracker (spec §4.5).
type pauser interface {
	Pause(jobName, downloadID, title, reason string)
	Unpause(jobName, downloadID string)
}

// clientLookup is the subset of *downloadclient.Registry remove_slow needs.
type clientLookup interface {
	LookupTorrentP2P(name string) (downloadclient.Client, bool)
}

// Slow is remove_slow (spec §4.5): per-cycle throughput policing for
// torrent-p2p downloads. Blocklist true, strikes used.
type Slow struct {
	base
	registry     clientLookup
	progress     progressStore
	pauser       pauser
	timer        time.Duration
	minSpeedKBs  int
	nowUnix      func() int64
}

// NewSlow constructs the job. nowUnix supplies the current unix time so
// tests can control it; production wiring passes time.Now().Unix.
func NewSlow(maxStrikes int, minSpeedKBs int, timer time.Duration, registry clientLookup, progress progressStore, pauser pauser, nowUnix func() int64) *Slow {
	return &Slow{
		base:        base{name: "remove_slow", scope: domain.ScopeNormal, blocklist: true, maxStrikes: &maxStrikes},
		registry:    registry,
		progress:    progress,
		pauser:      pauser,
		timer:       timer,
		minSpeedKBs: minSpeedKBs,
		nowUnix:     nowUnix,
	}
}

func (j *Slow) Predicate(ctx context.Context, items []domain.QueueItem) ([]domain.QueueItem, error) {
	var out []domain.QueueItem

	for _, item := range items {
		if item.Protocol != domain.ProtocolTorrent {
			continue
		}
		if item.DownloadID == "" || item.Size == 0 || item.Status == "" || item.DownloadClientName == "" {
			continue
		}
		if item.Size > 0 && item.SizeLeft == 0 {
			continue // completed-but-stuck during move/import
		}

		client, ok := j.registry.LookupTorrentP2P(item.DownloadClientName)
		if !ok {
			continue
		}

		clientItems, err := client.ListItems(ctx, []string{item.DownloadID})
		if err != nil {
			return nil, err
		}
		if len(clientItems) == 0 {
			continue
		}
		ci := clientItems[0]
		if _, downloading := downloadingStates[ci.State]; !downloading {
			continue
		}

		bytesNow := ci.CompletedBytes
		if bytesNow == 0 {
			bytesNow = item.Size - item.SizeLeft
		}

		// Record a sample for every observed download before the saturation
		// check can short-circuit the loop, so a run of saturated cycles
		// still leaves PreviousProgress populated once utilization drops.
		prev, hadPrev := j.progress.PreviousProgress(item.DownloadID)
		j.progress.RecordProgress(domain.ProgressSample{DownloadID: item.DownloadID, BytesDownloaded: bytesNow, SampledAt: j.nowUnix()})

		if saturated, err := j.isBandwidthSaturated(ctx, client); err != nil {
			return nil, err
		} else if saturated {
			j.pauser.Pause(j.name, item.DownloadID, item.Title, reasonHighBandwidthUsage)
			continue
		}
		j.pauser.Unpause(j.name, item.DownloadID)

		if !hadPrev {
			continue // first cycle's sample, no delta to compute
		}

		speedKBs := float64(bytesNow-prev.BytesDownloaded) / 1000 / j.timer.Seconds()
		if speedKBs < float64(j.minSpeedKBs) {
			out = append(out, item)
		}
	}

	return out, nil
}

func (j *Slow) isBandwidthSaturated(ctx context.Context, client downloadclient.Client) (bool, error) {
	reporter, ok := client.(downloadclient.BandwidthReporter)
	if !ok {
		return false, nil
	}
	utilization, err := reporter.GlobalBandwidthUtilization(ctx)
	if err != nil {
		return false, err
	}
	return utilization > bandwidthSaturationThreshold, nil
}
