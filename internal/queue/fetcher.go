// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package queue implements QueueFetcher (spec §4.3): fetching a curator's
// download queue, normalizing it, and silently dropping transient/ignored
// entries.
package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/declutterd/declutterd/internal/curator"
	"github.com/declutterd/declutterd/internal/domain"
	"github.com/declutterd/declutterd/pkg/dedupkey"
)

// Fetcher fetches and normalizes one curator's queue.
type Fetcher struct {
	gateway                curator.Gateway
	ignoredDownloadClients map[string]struct{}
	log                    zerolog.Logger

	loggedTransient map[dedupkey.Key]struct{}
}

// New constructs a Fetcher for one curator's gateway.
func New(gw curator.Gateway, ignoredDownloadClients []string, log zerolog.Logger) *Fetcher {
	ignored := make(map[string]struct{}, len(ignoredDownloadClients))
	for _, name := range ignoredDownloadClients {
		ignored[name] = struct{}{}
	}
	return &Fetcher{
		gateway:                gw,
		ignoredDownloadClients: ignored,
		log:                    log,
		loggedTransient:        make(map[dedupkey.Key]struct{}),
	}
}

// Get fetches scope and applies the normalization/filtering rules of
// spec §4.3. For ScopeOrphans it fetches both full and normal and returns
// their strict set difference (spec §3 invariant 5); filtering still
// applies to the orphan set's source lists.
func (f *Fetcher) Get(ctx context.Context, scope domain.QueueScope) ([]domain.QueueItem, error) {
	if scope == domain.ScopeOrphans {
		full, err := f.Get(ctx, domain.ScopeFull)
		if err != nil {
			return nil, err
		}
		normal, err := f.Get(ctx, domain.ScopeNormal)
		if err != nil {
			return nil, err
		}
		return domain.DiffByQueueEntryID(full, normal), nil
	}

	items, err := f.gateway.GetQueue(ctx, scope)
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.QueueItem, 0, len(items))
	for _, item := range items {
		if f.isTransient(item) {
			f.logTransientOnce(item)
			continue
		}
		if _, ignored := f.ignoredDownloadClients[item.DownloadClientName]; ignored {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered, nil
}

func (f *Fetcher) isTransient(item domain.QueueItem) bool {
	return item.Status == domain.StatusDelay || item.Status == domain.StatusDownloadClientUnavailable
}

// logTransientOnce emits a single debug log line per unique
// (title, protocol, indexer) triple, per spec §4.3.
func (f *Fetcher) logTransientOnce(item domain.QueueItem) {
	key := dedupkey.TitleProtocolIndexer(item.Title, string(item.Protocol), item.Indexer)
	if _, seen := f.loggedTransient[key]; seen {
		return
	}
	f.loggedTransient[key] = struct{}{}
	f.log.Debug().
		Str("title", item.Title).
		Str("protocol", string(item.Protocol)).
		Str("indexer", item.Indexer).
		Str("status", item.Status).
		Msg("queue: ignoring transient status")
}
