// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package action implements ActionDispatcher (spec §4.8): deciding, per
// offending download grouping, whether to remove+blocklist, remove,
// tag-as-obsolete, or skip, and executing that decision idempotently.
package action

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/declutterd/declutterd/internal/config"
	"github.com/declutterd/declutterd/internal/curator"
	"github.com/declutterd/declutterd/internal/domain"
	"github.com/declutterd/declutterd/internal/downloadclient"
)

// Mode is the handling mode selected for one offending download (spec §4.8
// step 2).
type Mode string

const (
	ModeRemove        Mode = "remove"
	ModeTagAsObsolete Mode = "tag_as_obsolete"
	ModeSkip          Mode = "skip"
)

// trackerView is the subset of *tracker.Tracker ActionDispatcher needs.
type trackerView interface {
	IsDeleted(downloadID string) bool
	MarkDeleted(downloadID string)
	IsPrivate(downloadID string) bool
}

// Dispatcher executes handling decisions for one curator's offending
// groups against its gateway and the shared download-client registry.
type Dispatcher struct {
	gateway  curator.Gateway
	registry *downloadclient.Registry
	tracker  trackerView

	privateHandling config.TrackerHandling
	publicHandling  config.TrackerHandling
	obsoleteTag     string

	log zerolog.Logger
}

// New constructs a Dispatcher.
func New(gw curator.Gateway, registry *downloadclient.Registry, tr trackerView, privateHandling, publicHandling config.TrackerHandling, obsoleteTag string, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		gateway:         gw,
		registry:        registry,
		tracker:         tr,
		privateHandling: privateHandling,
		publicHandling:  publicHandling,
		obsoleteTag:     obsoleteTag,
		log:             log,
	}
}

// Dispatch executes the handling decision for every group, honoring the
// at-most-once fence, protected supremacy (already filtered upstream by
// Tracker.FilterProtected), and the removalMessages diagnostic (spec §4.8).
func (d *Dispatcher) Dispatch(ctx context.Context, groups []domain.DownloadGrouping, blocklist bool) {
	for _, g := range groups {
		if d.tracker.IsDeleted(g.DownloadID) {
			continue
		}

		mode := d.selectMode(g)
		succeeded := d.execute(ctx, g, mode, blocklist)

		for _, msg := range g.RemovalMessages() {
			d.log.Info().Str("downloadId", g.DownloadID).Str("title", g.Title()).
				Str("message", msg).Msg("action: removal diagnostic")
		}

		if succeeded {
			d.tracker.MarkDeleted(g.DownloadID)
		}
	}
}

// selectMode implements spec §4.8 step 2 verbatim.
func (d *Dispatcher) selectMode(g domain.DownloadGrouping) Mode {
	if g.Protocol() != domain.ProtocolTorrent {
		return ModeRemove
	}

	if _, ok := d.registry.LookupTorrentP2P(g.DownloadClientName()); !ok {
		return ModeRemove
	}

	if !d.registry.HasAnyTorrentP2P() {
		return ModeRemove
	}

	var handling config.TrackerHandling
	if d.tracker.IsPrivate(g.DownloadID) {
		handling = d.privateHandling
	} else {
		handling = d.publicHandling
	}

	switch handling {
	case config.HandlingSkip:
		return ModeSkip
	case config.HandlingTagAsObsolete:
		return ModeTagAsObsolete
	default:
		return ModeRemove
	}
}

func (d *Dispatcher) execute(ctx context.Context, g domain.DownloadGrouping, mode Mode, blocklist bool) bool {
	switch mode {
	case ModeRemove:
		ok, err := d.gateway.RemoveQueueEntry(ctx, g.FirstQueueEntryID(), blocklist)
		if err != nil {
			d.log.Warn().Err(err).Str("downloadId", g.DownloadID).Msg("action: removeQueueEntry failed")
			return false
		}
		if !ok {
			d.log.Warn().Str("downloadId", g.DownloadID).Msg("action: removeQueueEntry rejected, will retry next cycle")
			return false
		}
		return true

	case ModeTagAsObsolete:
		return d.tagAsObsolete(ctx, g)

	case ModeSkip:
		return true
	}
	return false
}

func (d *Dispatcher) tagAsObsolete(ctx context.Context, g domain.DownloadGrouping) bool {
	clients := d.registry.AllTorrentP2P()
	if len(clients) == 0 {
		return false
	}

	ok := true
	for _, c := range clients {
		tagger, supports := c.(downloadclient.Tagger)
		if !supports {
			continue
		}
		if err := tagger.EnsureTagExists(ctx, d.obsoleteTag); err != nil {
			d.log.Warn().Err(err).Str("client", c.Name()).Msg("action: ensureTagExists failed")
			ok = false
			continue
		}
		if err := tagger.ApplyTag(ctx, []string{g.DownloadID}, []string{d.obsoleteTag}); err != nil {
			d.log.Warn().Err(err).Str("client", c.Name()).Msg("action: applyTag failed")
			ok = false
		}
	}
	return ok
}
