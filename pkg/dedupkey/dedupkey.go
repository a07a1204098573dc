// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package dedupkey builds compact hash keys for "log this once" dedup sets.
// QueueFetcher uses it to emit one debug log per unique (title, protocol,
// indexer) tuple for transient queue statuses (spec §4.3), rather than
// formatting and comparing the full string tuple on every cycle.
package dedupkey

import "github.com/cespare/xxhash/v2"

// Key is an opaque dedup key suitable as a map key.
type Key uint64

// TitleProtocolIndexer hashes the (title, protocol, indexer) tuple used to
// dedup "ignored transient status" log lines in QueueFetcher.
func TitleProtocolIndexer(title, protocol, indexer string) Key {
	d := xxhash.New()
	_, _ = d.WriteString(title)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(protocol)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(indexer)
	return Key(d.Sum64())
}
