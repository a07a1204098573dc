// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package downloadclient implements the ClientGateway capability surface
// for download clients (spec §4.2). Two concrete kinds exist —
// torrent-p2p (backed by qBittorrent via github.com/autobrr/go-qbittorrent)
// and usenet (backed by a SABnzbd-style JSON API) — exposing differing
// capability sets behind small, optional interfaces so the removal jobs can
// query capability presence rather than branch on kind directly.
package downloadclient

import (
	"context"
	"time"

	"github.com/declutterd/declutterd/internal/domain"
)

// Item is the normalized shape a download client reports for one download,
// rich enough to serve both the torrent-p2p and usenet capability sets;
// usenet clients simply leave the torrent-only fields at their zero value.
type Item struct {
	ID               string
	State            string
	CompletedBytes   int64
	Size             int64
	SizeLeft         int64
	TimeLeftSeconds  int64
	Tags             []string
	IsPrivate        bool
	Availability     float64
}

// File describes one file inside a torrent (torrent-p2p only).
type File struct {
	Index        int
	Path         string
	Priority     int
	Availability float64
	Progress     float64
	Size         int64
}

// Client is the minimal capability every download client kind implements.
type Client interface {
	Kind() domain.DownloadClientKind
	Name() string
	ProbeConnected(ctx context.Context) (bool, error)
	ListItems(ctx context.Context, ids []string) ([]Item, error)
	DownloadedBytes(ctx context.Context, id string) (int64, bool, error)
}

// SessionRefresher is implemented by clients whose auth needs periodic
// renewal (torrent-p2p only, per spec §4.2).
type SessionRefresher interface {
	EnsureSession(ctx context.Context) error
	RefreshSession(ctx context.Context) error
}

// FileLister is implemented by clients that can enumerate per-file state
// (torrent-p2p only).
type FileLister interface {
	ListItemFiles(ctx context.Context, id string) ([]File, error)
	SetFilePriority(ctx context.Context, id string, fileIndex int, priority int) error
}

// Tagger is implemented by clients that support applying labels to
// downloads (torrent-p2p only).
type Tagger interface {
	EnsureTagExists(ctx context.Context, tag string) error
	ApplyTag(ctx context.Context, ids []string, tags []string) error
}

// BandwidthReporter is implemented by clients that can report aggregate
// bandwidth utilization against a configured limit (torrent-p2p only;
// usenet throughput is a subscription concern per spec §4.5).
type BandwidthReporter interface {
	GlobalBandwidthUtilization(ctx context.Context) (float64, error)
}

// UnwantedFolderPreference is implemented by clients that can be told to
// move deprioritized files into an "unwanted" subfolder (torrent-p2p only,
// and only exercised when remove_bad_files is enabled, per spec §4.2).
type UnwantedFolderPreference interface {
	EnsureUnwantedFolderPreference(ctx context.Context, enabled bool) error
}

// Remover removes an entry from the client's own queue/session. QueueFetcher
// never calls this directly — it is invoked transitively by the curator's
// removeQueueEntry, which is documented to "also remove from the download
// client" (spec §4.1). It is kept here because the capability genuinely
// belongs to the download client, even though the curator is the one the
// engine calls.
type Remover interface {
	Remove(ctx context.Context, id string, deleteFiles bool) error
}

// staleAfter is how long a cached connectivity probe result is trusted
// before ProbeConnected re-checks the backend.
const staleAfter = 10 * time.Second
