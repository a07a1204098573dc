// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package deletionbridge implements DeletionBridge (spec §2/§4.1,
// optional component): watches each curator's configured root folders
// for file-delete events and asks the curator to refresh the affected
// media item, so a manual or external deletion is reflected promptly
// instead of waiting for the curator's own library scan.
package deletionbridge

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/declutterd/declutterd/internal/curator"
)

// gateway is the subset of curator.Gateway the bridge needs.
type gateway interface {
	ListRootFolders(ctx context.Context) ([]curator.RootFolder, error)
	FindItemByPath(ctx context.Context, path string) (detailItemID int64, found bool, err error)
	RefreshItem(ctx context.Context, detailItemID int64) error
}

// target is one curator bound to the bridge.
type target struct {
	name    string
	gateway gateway
}

// Bridge watches every configured curator's root folders and triggers a
// refresh when a file under them is removed.
type Bridge struct {
	settle time.Duration
	log    zerolog.Logger

	watcher     *fsnotify.Watcher
	dirToTarget map[string]*target

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New constructs a Bridge. settle is how long to wait after the last
// event for a path before acting, so a move-then-recreate (common during
// an import) doesn't trigger a spurious refresh for a file that's still
// there a moment later.
func New(settle time.Duration, log zerolog.Logger) *Bridge {
	return &Bridge{settle: settle, log: log, pending: make(map[string]*time.Timer)}
}

// AddCurator registers a curator and watches its currently-accessible
// root folders. Root folders reported as inaccessible are skipped with a
// warning rather than failing setup, since curators routinely report
// stale or temporarily-unmounted paths.
func (b *Bridge) AddCurator(ctx context.Context, name string, gw gateway) error {
	folders, err := gw.ListRootFolders(ctx)
	if err != nil {
		return err
	}

	t := &target{name: name, gateway: gw}

	if b.dirToTarget == nil {
		b.dirToTarget = make(map[string]*target)
	}

	for _, f := range folders {
		if !f.Accessible {
			b.log.Warn().Str("curator", name).Str("path", f.Path).Msg("deletionbridge: root folder reported inaccessible, skipping watch")
			continue
		}
		b.dirToTarget[filepath.Clean(f.Path)] = t
		if b.watcher != nil {
			if err := b.watcher.Add(f.Path); err != nil {
				b.log.Warn().Err(err).Str("curator", name).Str("path", f.Path).Msg("deletionbridge: failed to watch root folder")
			}
		}
	}
	return nil
}

// Run starts the filesystem watcher and blocks until ctx is canceled.
func (b *Bridge) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	b.watcher = w

	for dir := range b.dirToTarget {
		if err := w.Add(dir); err != nil {
			b.log.Warn().Err(err).Str("path", dir).Msg("deletionbridge: failed to watch root folder")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				b.scheduleRefresh(ctx, ev.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			b.log.Warn().Err(err).Msg("deletionbridge: watcher error")
		}
	}
}

// scheduleRefresh debounces repeated events for the same path within the
// settle window, then resolves it against the owning curator and asks
// for a refresh.
func (b *Bridge) scheduleRefresh(ctx context.Context, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.pending[path]; ok {
		existing.Stop()
	}
	b.pending[path] = time.AfterFunc(b.settle, func() {
		b.mu.Lock()
		delete(b.pending, path)
		b.mu.Unlock()
		b.refresh(ctx, path)
	})
}

func (b *Bridge) refresh(ctx context.Context, path string) {
	t := b.ownerFor(path)
	if t == nil {
		return
	}

	detailItemID, found, err := t.gateway.FindItemByPath(ctx, path)
	if err != nil {
		b.log.Warn().Err(err).Str("curator", t.name).Str("path", path).Msg("deletionbridge: findItemByPath failed")
		return
	}
	if !found {
		return
	}

	if err := t.gateway.RefreshItem(ctx, detailItemID); err != nil {
		b.log.Warn().Err(err).Str("curator", t.name).Str("path", path).Int64("detailItemId", detailItemID).Msg("deletionbridge: refreshItem failed")
		return
	}
	b.log.Info().Str("curator", t.name).Str("path", path).Int64("detailItemId", detailItemID).Msg("deletionbridge: refreshed item after deletion")
}

// ownerFor returns the target whose watched root folder is the longest
// matching prefix of path, or nil if none matches.
func (b *Bridge) ownerFor(path string) *target {
	var best *target
	var bestLen int
	for dir, t := range b.dirToTarget {
		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if len(dir) > bestLen {
			best, bestLen = t, len(dir)
		}
	}
	return best
}
