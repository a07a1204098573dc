// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// DownloadClientKind distinguishes the two protocol families the engine
// understands. The capability table in spec §4.2 is keyed off this.
type DownloadClientKind string

const (
	DownloadClientTorrent DownloadClientKind = "torrent-p2p"
	DownloadClientUsenet  DownloadClientKind = "usenet"
)

// Protocol mirrors the protocol string a curator attaches to a QueueItem.
// It is kept distinct from DownloadClientKind because a QueueItem's
// protocol is reported by the curator, while DownloadClientKind is a
// property of the configured DownloadClient the item happens to use; the
// two agree in practice but ActionDispatcher (spec §4.8) treats them as
// separate lookups on purpose.
type Protocol string

const (
	ProtocolTorrent Protocol = "torrent-p2p"
	ProtocolUsenet  Protocol = "usenet"
)
