// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package removal

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/declutterd/declutterd/internal/domain"
	"github.com/declutterd/declutterd/internal/downloadclient"
)

const badFileSizeExemptThreshold = 500 * 1024 * 1024 // 500 MB

var defaultBadKeywords = []string{
	"sample", "trailer", "extras", "rarbg.com", "www.", ".nfo.exe", "readme.exe",
}

var defaultAllowedExtensions = map[string]struct{}{
	// video
	".mkv": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".m4v": {}, ".ts": {}, ".m2ts": {},
	// subtitles
	".srt": {}, ".sub": {}, ".idx": {}, ".ass": {}, ".ssa": {},
	// audio
	".mp3": {}, ".flac": {}, ".m4a": {}, ".ogg": {}, ".opus": {}, ".wav": {}, ".aac": {},
	// books/text
	".epub": {}, ".mobi": {}, ".azw3": {}, ".pdf": {}, ".cbz": {}, ".cbr": {}, ".txt": {},
}

var archiveExtensions = map[string]struct{}{
	".rar": {}, ".zip": {}, ".7z": {}, ".r00": {}, ".r01": {},
}

// extensionTracker is the subset of *tracker.Tracker remove_bad_files needs
// for its checked-unless-availability-slipped idempotence (spec §4.6).
type extensionTracker interface {
	WasExtensionChecked(downloadID string) bool
	MarkExtensionChecked(downloadID string)
	ClearExtensionChecked(downloadID string)
}

// BadFiles is remove_bad_files (spec §4.6): torrent-only file-level
// curation — stops downloading files with disallowed extensions or
// bad-keyword paths, then offends the whole download once every file is
// stopped. Blocklist true, no strikes (acts immediately once all files are
// stopped).
type BadFiles struct {
	base
	registry     clientLookup
	tracker      extensionTracker
	keepArchives bool
	badKeywords  []string
}

// NewBadFiles constructs the job.
func NewBadFiles(registry clientLookup, tracker extensionTracker, keepArchives bool, badKeywords []string) *BadFiles {
	if len(badKeywords) == 0 {
		badKeywords = defaultBadKeywords
	}
	return &BadFiles{
		base:         base{name: "remove_bad_files", scope: domain.ScopeNormal, blocklist: true},
		registry:     registry,
		tracker:      tracker,
		keepArchives: keepArchives,
		badKeywords:  badKeywords,
	}
}

func (j *BadFiles) Predicate(ctx context.Context, items []domain.QueueItem) ([]domain.QueueItem, error) {
	var out []domain.QueueItem

	for _, item := range items {
		if item.Protocol != domain.ProtocolTorrent {
			continue
		}

		client, ok := j.registry.LookupTorrentP2P(item.DownloadClientName)
		if !ok {
			continue
		}
		lister, ok := client.(downloadclient.FileLister)
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

		alreadyChecked := j.tracker.WasExtensionChecked(item.DownloadID)
		if alreadyChecked && ci.Availability >= 1 {
			continue
		}
		if ci.Availability >= 1 {
			j.tracker.ClearExtensionChecked(item.DownloadID)
		}

		offending, err := j.inspectFiles(ctx, lister, item.DownloadID)
		if err != nil {
			return nil, err
		}
		j.tracker.MarkExtensionChecked(item.DownloadID)

		if offending {
			out = append(out, item)
		}
	}

	return out, nil
}

// inspectFiles stops every bad file and reports whether, afterward, every
// file in the torrent is stopped (priority 0).
func (j *BadFiles) inspectFiles(ctx context.Context, lister downloadclient.FileLister, downloadID string) (bool, error) {
	files, err := lister.ListItemFiles(ctx, downloadID)
	if err != nil {
		return false, err
	}
	if len(files) == 0 {
		return false, nil
	}

	allStopped := true
	for _, f := range files {
		stop := f.Priority == 0 || j.isBadFile(f)
		if stop && f.Priority != 0 {
			if err := lister.SetFilePriority(ctx, downloadID, f.Index, 0); err != nil {
				return false, err
			}
		}
		if !stop {
			allStopped = false
		}
	}
	return allStopped, nil
}

func (j *BadFiles) isBadFile(f downloadclient.File) bool {
	ext := strings.ToLower(filepath.Ext(f.Path))
	if !j.extensionAllowed(ext) {
		return true
	}
	if f.Size <= badFileSizeExemptThreshold && j.matchesBadKeyword(f.Path) {
		return true
	}
	if f.Availability < 1 && f.Progress < 1 {
		return true
	}
	return false
}

func (j *BadFiles) extensionAllowed(ext string) bool {
	if _, ok := defaultAllowedExtensions[ext]; ok {
		return true
	}
	if j.keepArchives {
		if _, ok := archiveExtensions[ext]; ok {
			return true
		}
	}
	return false
}

func (j *BadFiles) matchesBadKeyword(path string) bool {
	lowerPath := strings.ToLower(path)
	for _, kw := range j.badKeywords {
		if strings.Contains(lowerPath, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
