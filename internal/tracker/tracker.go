// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package tracker implements the per-curator, in-memory cross-cycle state
// of spec §3/§4.1: protected/private classification, the at-most-once
// deleted-this-cycle fence, per-download progress samples, and the
// extension-checked idempotence set for remove_bad_files.
package tracker

import (
	"context"
	"sync"

	"github.com/declutterd/declutterd/internal/domain"
	"github.com/declutterd/declutterd/internal/downloadclient"
)

// PrivacyProvider supplies the protected/private classification for a
// download; every downloadclient.Client, QBittorrent and Usenet alike,
// satisfies it.
type PrivacyProvider interface {
	// ListItems is used to source IsPrivate and Tags per downloadId.
	ListItems(ctx context.Context, ids []string) ([]downloadclient.Item, error)
}

// Tracker holds one curator's cross-cycle state. It is NOT safe for
// concurrent access from more than one goroutine at a time; spec §5
// requires exclusive per-cycle ownership by the scheduler, enforced here
// with a plain mutex as a defensive backstop rather than a documented-only
// convention.
type Tracker struct {
	mu sync.Mutex

	protectedTag string

	protected map[string]struct{} // downloadId set
	private   map[string]struct{} // downloadId set
	deleted   map[string]struct{} // downloadId set, cleared at BeginCycle

	extensionChecked map[string]struct{} // downloadId set

	progress map[string]domain.ProgressSample // downloadId -> sample

	defective map[string]map[string]domain.StrikeRecord // jobName -> downloadId -> record
}

// New constructs an empty Tracker. protectedTag is the download-client tag
// that marks a download as protected (spec §6 general.protectedTag).
func New(protectedTag string) *Tracker {
	return &Tracker{
		protectedTag:     protectedTag,
		protected:        make(map[string]struct{}),
		private:          make(map[string]struct{}),
		deleted:          make(map[string]struct{}),
		extensionChecked: make(map[string]struct{}),
		progress:         make(map[string]domain.ProgressSample),
		defective:        make(map[string]map[string]domain.StrikeRecord),
	}
}

// BeginCycle clears the at-most-once action fence at the start of every
// cycle (spec §9: deleted-this-cycle is scoped to a single cycle, not the
// daemon's lifetime).
func (t *Tracker) BeginCycle() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deleted = make(map[string]struct{})
}

// RefreshPrivateProtected reclassifies every download observed across the
// given torrent-p2p clients into protected/private, refreshed once per
// cycle before removal jobs run (spec §3 "Protection/PrivacyFlag").
func (t *Tracker) RefreshPrivateProtected(ctx context.Context, clients []downloadclient.Client) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	protected := make(map[string]struct{})
	private := make(map[string]struct{})

	for _, c := range clients {
		if c.Kind() != domain.DownloadClientTorrent {
			continue
		}
		items, err := c.ListItems(ctx, nil)
		if err != nil {
			return err
		}
		for _, item := range items {
			if item.IsPrivate {
				private[item.ID] = struct{}{}
			}
			for _, tag := range item.Tags {
				if tag == t.protectedTag {
					protected[item.ID] = struct{}{}
					break
				}
			}
		}
	}

	t.protected = protected
	t.private = private
	return nil
}

// IsProtected reports protected supremacy for a downloadId (spec §3
// invariant 4).
func (t *Tracker) IsProtected(downloadID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.protected[downloadID]
	return ok
}

// IsPrivate reports whether downloadID is classified private this cycle.
func (t *Tracker) IsPrivate(downloadID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.private[downloadID]
	return ok
}

// FilterProtected removes protected groups from groups (spec §4.4 outer
// loop: "offending_groups \ Tracker.protected").
func (t *Tracker) FilterProtected(groups []domain.DownloadGrouping) []domain.DownloadGrouping {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.DownloadGrouping, 0, len(groups))
	for _, g := range groups {
		if _, protected := t.protected[g.DownloadID]; protected {
			continue
		}
		out = append(out, g)
	}
	return out
}

// IsDeleted reports whether downloadID already had an action executed this
// cycle (spec §3 invariant 3).
func (t *Tracker) IsDeleted(downloadID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.deleted[downloadID]
	return ok
}

// MarkDeleted records downloadID as acted-upon for the remainder of the
// cycle.
func (t *Tracker) MarkDeleted(downloadID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deleted[downloadID] = struct{}{}
}

// WasExtensionChecked reports whether downloadID has already had its files
// inspected by remove_bad_files on a prior cycle (spec §4.6 idempotence).
func (t *Tracker) WasExtensionChecked(downloadID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.extensionChecked[downloadID]
	return ok
}

// MarkExtensionChecked records downloadID as checked.
func (t *Tracker) MarkExtensionChecked(downloadID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.extensionChecked[downloadID] = struct{}{}
}

// ClearExtensionChecked un-marks downloadID, used when availability slips
// back below 1 and the torrent must be re-inspected (spec §4.6).
func (t *Tracker) ClearExtensionChecked(downloadID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.extensionChecked, downloadID)
}

// PreviousProgress returns the last recorded progress sample for
// downloadID, if any.
func (t *Tracker) PreviousProgress(downloadID string) (domain.ProgressSample, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.progress[downloadID]
	return s, ok
}

// RecordProgress stores this cycle's progress sample for downloadID,
// overwriting the prior anchor (spec §3 "refreshed each cycle").
func (t *Tracker) RecordProgress(sample domain.ProgressSample) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress[sample.DownloadID] = sample
}

// StrikeRecord returns the current strike record for (jobName, downloadID).
func (t *Tracker) StrikeRecord(jobName, downloadID string) (domain.StrikeRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.defective[jobName]
	if !ok {
		return domain.StrikeRecord{}, false
	}
	r, ok := job[downloadID]
	return r, ok
}

// SetStrikeRecord stores rec under (jobName, downloadID).
func (t *Tracker) SetStrikeRecord(jobName string, rec domain.StrikeRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.defective[jobName]
	if !ok {
		job = make(map[string]domain.StrikeRecord)
		t.defective[jobName] = job
	}
	job[rec.DownloadID] = rec
}

// DeleteStrikeRecord removes the record at (jobName, downloadID), used on
// recovery or disappearance from the queue (spec §4.7).
func (t *Tracker) DeleteStrikeRecord(jobName, downloadID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.defective[jobName]; ok {
		delete(job, downloadID)
	}
}

// StrikeRecordsForJob returns a snapshot of every strike record currently
// tracked for jobName, used by StrikeFilter's Recover pass.
func (t *Tracker) StrikeRecordsForJob(jobName string) map[string]domain.StrikeRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	job := t.defective[jobName]
	out := make(map[string]domain.StrikeRecord, len(job))
	for id, rec := range job {
		out[id] = rec
	}
	return out
}
