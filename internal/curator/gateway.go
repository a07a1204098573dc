// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package curator implements the ClientGateway capability façade over a
// curator instance (spec §4.1). Wire formats are vendor-specific and out
// of scope; Gateway exposes only the capabilities the cleanup cycle engine
// consumes.
package curator

import (
	"context"

	"github.com/declutterd/declutterd/internal/domain"
)

// WantedKind selects which wanted-item list listWanted returns.
type WantedKind string

const (
	WantedMissing WantedKind = "missing"
	WantedCutoff  WantedKind = "cutoff"
)

// ProbeResult is what probe() returns on success (spec §4.1).
type ProbeResult struct {
	Version      string
	Kind         domain.CuratorKind
	InstanceName string
	NonEnglishUI bool // warning only, never fatal
}

// DownloadClientBinding is one entry from listDownloadClientsBinding.
type DownloadClientBinding struct {
	Name string
	Kind domain.DownloadClientKind
}

// RootFolder is one entry from listRootFolders (DeletionBridge support).
type RootFolder struct {
	Path       string
	Accessible bool
}

// Gateway is the capability surface a Curator exposes to the cleanup cycle
// engine (spec §4.1).
type Gateway interface {
	Probe(ctx context.Context) (ProbeResult, error)
	GetQueue(ctx context.Context, scope domain.QueueScope) ([]domain.QueueItem, error)
	RemoveQueueEntry(ctx context.Context, queueEntryID int64, blocklist bool) (bool, error)
	IsMonitored(ctx context.Context, detailItemID int64) (bool, error)
	ListWanted(ctx context.Context, kind WantedKind) ([]domain.WantedItem, error)
	CommandSearch(ctx context.Context, detailItemIDs []int64) error
	ListDownloadClientsBinding(ctx context.Context) ([]DownloadClientBinding, error)

	// DeletionBridge support (spec §4.1, optional component).
	ListRootFolders(ctx context.Context) ([]RootFolder, error)
	FindItemByPath(ctx context.Context, path string) (detailItemID int64, found bool, err error)
	RefreshItem(ctx context.Context, detailItemID int64) error
}
