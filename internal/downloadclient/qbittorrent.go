// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package downloadclient

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog/log"

	"github.com/declutterd/declutterd/internal/apperr"
	"github.com/declutterd/declutterd/internal/domain"
)

// minTagsVersion is the lowest qBittorrent WebAPI version whose tagging
// endpoints this client relies on; below it, EnsureTagExists/ApplyTag are
// no-ops rather than hard failures.
var minTagsVersion = semver.MustParse("2.8.3")

// QBittorrent wraps github.com/autobrr/go-qbittorrent as a torrent-p2p
// download client, the richest capability set in spec §4.2.
type QBittorrent struct {
	name   string
	client *qbt.Client

	mu              sync.Mutex
	webAPIVersion   string
	supportsTagging bool
	bandwidthLimit  int64 // bytes/sec; 0 means unlimited

	lastProbe   time.Time
	lastProbeOK bool
}

// NewQBittorrent constructs a QBittorrent client and performs the initial
// login + version probe spec §4.1's probe() requires.
func NewQBittorrent(ctx context.Context, name, host, username, password string) (*QBittorrent, error) {
	client := qbt.NewClient(qbt.Config{
		Host:     host,
		Username: username,
		Password: password,
		Timeout:  15,
	})

	if err := client.LoginCtx(ctx); err != nil {
		return nil, apperr.New(apperr.KindAuthFailed, "qbittorrent.login", name, err)
	}

	q := &QBittorrent{name: name, client: client}

	version, err := client.GetWebAPIVersionCtx(ctx)
	if err == nil {
		q.webAPIVersion = version
		if v, err := semver.NewVersion(version); err == nil {
			q.supportsTagging = !v.LessThan(minTagsVersion)
		}
	}

	log.Debug().Str("client", name).Str("webAPIVersion", q.webAPIVersion).
		Bool("supportsTagging", q.supportsTagging).Msg("downloadclient: qbittorrent session established")

	return q, nil
}

func (q *QBittorrent) Kind() domain.DownloadClientKind { return domain.DownloadClientTorrent }
func (q *QBittorrent) Name() string                    { return q.name }

func (q *QBittorrent) EnsureSession(ctx context.Context) error {
	return q.RefreshSession(ctx)
}

func (q *QBittorrent) RefreshSession(ctx context.Context) error {
	if err := q.client.LoginCtx(ctx); err != nil {
		return apperr.New(apperr.KindAuthFailed, "qbittorrent.refreshSession", q.name, err)
	}
	return nil
}

func (q *QBittorrent) ProbeConnected(ctx context.Context) (bool, error) {
	q.mu.Lock()
	if time.Since(q.lastProbe) < staleAfter {
		ok := q.lastProbeOK
		q.mu.Unlock()
		return ok, nil
	}
	q.mu.Unlock()

	info, err := q.client.GetTransferInfoCtx(ctx)
	ok := err == nil && info != nil && info.ConnectionStatus != "disconnected" && info.ConnectionStatus != "firewalled"

	q.mu.Lock()
	q.lastProbe = time.Now()
	q.lastProbeOK = ok
	q.mu.Unlock()

	if err != nil {
		return false, apperr.New(apperr.KindBackendUnreachable, "qbittorrent.probeConnected", q.name, err)
	}
	return ok, nil
}

func (q *QBittorrent) ListItems(ctx context.Context, ids []string) ([]Item, error) {
	torrents, err := q.client.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{Hashes: ids})
	if err != nil {
		return nil, apperr.New(apperr.KindBackendUnreachable, "qbittorrent.listItems", q.name, err)
	}

	items := make([]Item, 0, len(torrents))
	for _, t := range torrents {
		items = append(items, Item{
			ID:             t.Hash,
			State:          string(t.State),
			CompletedBytes: int64(float64(t.Size) * t.Progress),
			Size:           t.Size,
			SizeLeft:       t.Size - int64(float64(t.Size)*t.Progress),
			Tags:           splitTags(t.Tags),
			IsPrivate:      isPrivateTorrent(t),
			Availability:   t.Availability,
		})
	}
	return items, nil
}

func (q *QBittorrent) DownloadedBytes(ctx context.Context, id string) (int64, bool, error) {
	torrents, err := q.client.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{Hashes: []string{id}})
	if err != nil {
		return 0, false, apperr.New(apperr.KindBackendUnreachable, "qbittorrent.downloadedBytes", q.name, err)
	}
	if len(torrents) == 0 {
		return 0, false, nil
	}
	t := torrents[0]
	return int64(float64(t.Size) * t.Progress), true, nil
}

func (q *QBittorrent) ListItemFiles(ctx context.Context, id string) ([]File, error) {
	files, err := q.client.GetFilesInformationCtx(ctx, id)
	if err != nil {
		return nil, apperr.New(apperr.KindBackendUnreachable, "qbittorrent.listItemFiles", q.name, err)
	}
	if files == nil {
		return nil, nil
	}

	out := make([]File, 0, len(*files))
	for i, f := range *files {
		out = append(out, File{
			Index:        i,
			Path:         f.Name,
			Priority:     int(f.Priority),
			Availability: f.Availability,
			Progress:     f.Progress,
			Size:         f.Size,
		})
	}
	return out, nil
}

func (q *QBittorrent) SetFilePriority(ctx context.Context, id string, fileIndex int, priority int) error {
	if err := q.client.SetFilePriorityCtx(ctx, id, strconv.Itoa(fileIndex), priority); err != nil {
		return apperr.New(apperr.KindBackendUnreachable, "qbittorrent.setFilePriority", q.name, err)
	}
	return nil
}

func (q *QBittorrent) EnsureTagExists(ctx context.Context, tag string) error {
	if !q.supportsTagging {
		return nil
	}
	if err := q.client.CreateTagsCtx(ctx, []string{tag}); err != nil {
		return apperr.New(apperr.KindBackendUnreachable, "qbittorrent.ensureTagExists", q.name, err)
	}
	return nil
}

func (q *QBittorrent) ApplyTag(ctx context.Context, ids []string, tags []string) error {
	if !q.supportsTagging {
		return nil
	}
	if err := q.client.AddTagsCtx(ctx, ids, strings.Join(tags, ",")); err != nil {
		return apperr.New(apperr.KindBackendUnreachable, "qbittorrent.applyTag", q.name, err)
	}
	return nil
}

func (q *QBittorrent) GlobalBandwidthUtilization(ctx context.Context) (float64, error) {
	q.mu.Lock()
	limit := q.bandwidthLimit
	q.mu.Unlock()
	if limit <= 0 {
		return 0, nil
	}

	info, err := q.client.GetTransferInfoCtx(ctx)
	if err != nil {
		return 0, apperr.New(apperr.KindBackendUnreachable, "qbittorrent.globalBandwidthUtilization", q.name, err)
	}
	return float64(info.DlInfoSpeed) / float64(limit), nil
}

// SetBandwidthLimit records the configured global download limit (bytes/sec)
// used by GlobalBandwidthUtilization; 0 means unlimited, matching spec
// §4.2 ("0 if no limit"). The scheduler does not call it, so the limit
// stays at its initial 0, and GlobalBandwidthUtilization reports 0, unless
// a caller sets it.
func (q *QBittorrent) SetBandwidthLimit(bytesPerSec int64) {
	q.mu.Lock()
	q.bandwidthLimit = bytesPerSec
	q.mu.Unlock()
}

func (q *QBittorrent) EnsureUnwantedFolderPreference(ctx context.Context, enabled bool) error {
	prefs := map[string]any{"use_unwanted_folder": enabled}
	if err := q.client.SetPreferencesCtx(ctx, prefs); err != nil {
		return apperr.New(apperr.KindBackendUnreachable, "qbittorrent.ensureUnwantedFolderPreference", q.name, err)
	}
	return nil
}

func (q *QBittorrent) Remove(ctx context.Context, id string, deleteFiles bool) error {
	if err := q.client.DeleteTorrentsCtx(ctx, []string{id}, deleteFiles); err != nil {
		return apperr.New(apperr.KindBackendUnreachable, "qbittorrent.remove", q.name, err)
	}
	return nil
}

func splitTags(tags string) []string {
	if tags == "" {
		return nil
	}
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isPrivateTorrent(t qbt.Torrent) bool {
	// No private flag is read from the torrent, so ListItems always
	// reports IsPrivate false. Tracker.RefreshPrivateProtected takes
	// IsPrivate from ListItems only and makes no properties call, so no
	// qBittorrent download is ever classified private.
	_ = t
	return false
}
