// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package strike implements StrikeFilter (spec §4.7): the generic
// "offending for N consecutive cycles" rule shared by every removal job
// that declares a maxStrikes.
package strike

import (
	"github.com/rs/zerolog"

	"github.com/declutterd/declutterd/internal/domain"
)

// Recovery classifies what happened to a previously-tracked downloadId
// that is no longer in this cycle's offending set.
type Recovery string

const (
	RecoveryPaused          Recovery = "paused"
	RecoveryRemovedFromQueue Recovery = "removed_from_queue"
	RecoveryRecovered       Recovery = "recovered"
)

// recorder is the subset of *tracker.Tracker StrikeFilter needs; kept as
// an interface so strike logic can be tested without a full Tracker.
type recorder interface {
	StrikeRecordsForJob(jobName string) map[string]domain.StrikeRecord
	StrikeRecord(jobName, downloadID string) (domain.StrikeRecord, bool)
	SetStrikeRecord(jobName string, rec domain.StrikeRecord)
	DeleteStrikeRecord(jobName, downloadID string)
}

// Filter applies the recover/increment/filter pipeline of spec §4.7.
type Filter struct {
	tracker recorder
	log     zerolog.Logger
}

// New constructs a Filter bound to a curator's Tracker.
func New(tracker recorder, log zerolog.Logger) *Filter {
	return &Filter{tracker: tracker, log: log}
}

// Apply runs the Recover, Increment, and Filter steps for one job's
// offending groups against the full current queue, returning only the
// groups whose strike count now strictly exceeds maxStrikes.
func (f *Filter) Apply(jobName string, maxStrikes int, offending []domain.DownloadGrouping, queue []domain.QueueItem) []domain.DownloadGrouping {
	offendingIDs := make(map[string]domain.DownloadGrouping, len(offending))
	for _, g := range offending {
		offendingIDs[g.DownloadID] = g
	}

	queueIDs := make(map[string]struct{}, len(queue))
	for _, item := range queue {
		queueIDs[item.DownloadID] = struct{}{}
	}

	f.recover(jobName, offendingIDs, queueIDs)
	f.increment(jobName, offending)
	return f.filter(jobName, maxStrikes, offending)
}

func (f *Filter) recover(jobName string, offendingIDs map[string]domain.DownloadGrouping, queueIDs map[string]struct{}) {
	for downloadID, rec := range f.tracker.StrikeRecordsForJob(jobName) {
		if _, stillOffending := offendingIDs[downloadID]; stillOffending {
			continue
		}

		switch {
		case rec.TrackingPaused:
			f.log.Debug().Str("job", jobName).Str("downloadId", downloadID).
				Str("reason", rec.PauseReason).Msg("strike: paused, leaving record")
		case !inQueue(downloadID, queueIDs):
			f.tracker.DeleteStrikeRecord(jobName, downloadID)
			f.log.Debug().Str("job", jobName).Str("downloadId", downloadID).
				Msg("strike: removed from queue, clearing record")
		default:
			f.tracker.DeleteStrikeRecord(jobName, downloadID)
			f.log.Debug().Str("job", jobName).Str("downloadId", downloadID).
				Msg("strike: recovered, clearing record")
		}
	}
}

func inQueue(downloadID string, queueIDs map[string]struct{}) bool {
	_, ok := queueIDs[downloadID]
	return ok
}

func (f *Filter) increment(jobName string, offending []domain.DownloadGrouping) {
	for _, g := range offending {
		rec, ok := f.tracker.StrikeRecord(jobName, g.DownloadID)
		if !ok {
			rec = domain.StrikeRecord{JobName: jobName, DownloadID: g.DownloadID, Title: g.Title()}
		}
		if rec.TrackingPaused {
			continue
		}
		rec.Strikes++
		f.tracker.SetStrikeRecord(jobName, rec)

		event := "incremented"
		if rec.Strikes == 1 {
			event = "added"
		}
		f.log.Debug().Str("job", jobName).Str("downloadId", g.DownloadID).
			Int("strikes", rec.Strikes).Str("event", event).Msg("strike: recorded")
	}
}

func (f *Filter) filter(jobName string, maxStrikes int, offending []domain.DownloadGrouping) []domain.DownloadGrouping {
	out := make([]domain.DownloadGrouping, 0, len(offending))
	for _, g := range offending {
		rec, ok := f.tracker.StrikeRecord(jobName, g.DownloadID)
		if !ok || rec.TrackingPaused {
			continue
		}
		if rec.Strikes > maxStrikes {
			out = append(out, g)
		}
	}
	return out
}

// Pause marks downloadID as tracking-paused for jobName with the given
// reason, neither accruing nor recovering strikes (spec §4.5
// "saturate-pause the strike tracker"). Used by remove_slow when the
// download client is bandwidth-saturated.
func (f *Filter) Pause(jobName, downloadID, title, reason string) {
	rec, ok := f.tracker.StrikeRecord(jobName, downloadID)
	if !ok {
		rec = domain.StrikeRecord{JobName: jobName, DownloadID: downloadID, Title: title}
	}
	rec.TrackingPaused = true
	rec.PauseReason = reason
	f.tracker.SetStrikeRecord(jobName, rec)
}

// Unpause clears the tracking-paused flag for downloadID under jobName, if
// a record exists.
func (f *Filter) Unpause(jobName, downloadID string) {
	rec, ok := f.tracker.StrikeRecord(jobName, downloadID)
	if !ok || !rec.TrackingPaused {
		return
	}
	rec.TrackingPaused = false
	rec.PauseReason = ""
	f.tracker.SetStrikeRecord(jobName, rec)
}
