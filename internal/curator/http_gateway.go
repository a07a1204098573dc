// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package curator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	hcversion "github.com/hashicorp/go-version"
	"github.com/avast/retry-go"
	"github.com/rs/zerolog/log"

	"github.com/declutterd/declutterd/internal/apperr"
	"github.com/declutterd/declutterd/internal/domain"
	"github.com/declutterd/declutterd/pkg/timeouts"
)

// minSupportedVersion is the floor below which probe() returns
// VersionTooLow (spec §4.1). Curator APIs of this shape share a v3 schema
// from roughly this release onward.
var minSupportedVersion = hcversion.Must(hcversion.NewVersion("3.0.0"))

// HTTPGateway is a generic REST-backed Gateway implementation. The exact
// JSON shapes are vendor-specific and intentionally abstracted behind
// small per-call structs; only the fields the engine consumes are decoded.
type HTTPGateway struct {
	name         string
	kind         domain.CuratorKind
	baseURL      string
	apiKey       string
	http         *http.Client
	testRun      bool
	searchName   string
}

// Config configures an HTTPGateway.
type Config struct {
	Name    string
	Kind    domain.CuratorKind
	BaseURL string
	APIKey  string
	Timeout time.Duration
	TestRun bool
}

// NewHTTPGateway constructs an HTTPGateway. It does not perform I/O; call
// Probe to validate connectivity and version.
func NewHTTPGateway(cfg Config) *HTTPGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeouts.DefaultCallTimeout
	}
	return &HTTPGateway{
		name:    cfg.Name,
		kind:    cfg.Kind,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		testRun: cfg.TestRun,
	}
}

type probeResponse struct {
	Version string `json:"version"`
	AppName string `json:"appName"`
}

func (g *HTTPGateway) Probe(ctx context.Context) (ProbeResult, error) {
	var resp probeResponse
	if err := g.get(ctx, "/api/v3/system/status", &resp); err != nil {
		return ProbeResult{}, err
	}

	if resp.Version != "" {
		v, err := hcversion.NewVersion(resp.Version)
		if err == nil && v.LessThan(minSupportedVersion) {
			return ProbeResult{}, apperr.New(apperr.KindVersionTooLow, "curator.probe", g.name,
				fmt.Errorf("version %s is below minimum supported %s", resp.Version, minSupportedVersion))
		}
	}

	return ProbeResult{
		Version:      resp.Version,
		Kind:         g.kind,
		InstanceName: g.name,
	}, nil
}

type queueResponse struct {
	Records []queueRecord `json:"records"`
}

type queueRecord struct {
	ID                    int64    `json:"id"`
	DownloadID            string   `json:"downloadId"`
	Title                 string   `json:"title"`
	Size                  int64    `json:"size"`
	SizeLeft              int64    `json:"sizeleft"`
	Status                string   `json:"status"`
	TrackedDownloadStatus string   `json:"trackedDownloadStatus"`
	TrackedDownloadState  string   `json:"trackedDownloadState"`
	StatusMessages        []statusMessage `json:"statusMessages"`
	ErrorMessage          string   `json:"errorMessage"`
	Protocol              string   `json:"protocol"`
	DownloadClient        string   `json:"downloadClient"`
	Indexer               string   `json:"indexer"`
	MovieID               int64    `json:"movieId"`
	EpisodeID             int64    `json:"episodeId"`
	AlbumID               int64    `json:"albumId"`
	BookID                int64    `json:"bookId"`
}

type statusMessage struct {
	Title    string   `json:"title"`
	Messages []string `json:"messages"`
}

func (g *HTTPGateway) GetQueue(ctx context.Context, scope domain.QueueScope) ([]domain.QueueItem, error) {
	// Before returning, the gateway is required to refresh the curator's
	// monitored-download tracking (spec §4.1 "BEFORE returning, the gateway
	// issues a refresh monitored downloads command").
	if err := g.refreshMonitoredDownloads(ctx); err != nil {
		return nil, err
	}

	params := url.Values{"pageSize": {"1000"}}
	if scope == domain.ScopeFull {
		params.Set("includeUnknownMovieItems", "true")
		params.Set("includeUnknownSeriesItems", "true")
	}

	var resp queueResponse
	if err := g.get(ctx, "/api/v3/queue?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	items := make([]domain.QueueItem, 0, len(resp.Records))
	for _, r := range resp.Records {
		items = append(items, toQueueItem(g.kind, r))
	}
	return items, nil
}

func toQueueItem(kind domain.CuratorKind, r queueRecord) domain.QueueItem {
	item := domain.QueueItem{
		QueueEntryID:          r.ID,
		DownloadID:            r.DownloadID,
		Title:                 r.Title,
		Size:                  r.Size,
		SizeLeft:              r.SizeLeft,
		Status:                r.Status,
		TrackedDownloadStatus: r.TrackedDownloadStatus,
		ErrorMessage:          r.ErrorMessage,
		TrackedDownloadState:  r.TrackedDownloadState,
		Protocol:              domain.Protocol(r.Protocol),
		DownloadClientName:    r.DownloadClient,
		Indexer:               r.Indexer,
	}
	for _, sm := range r.StatusMessages {
		item.StatusMessages = append(item.StatusMessages, sm.Messages...)
	}

	var detailID int64
	switch kind {
	case domain.CuratorMovie, domain.CuratorAdult:
		detailID = r.MovieID
	case domain.CuratorSeries:
		detailID = r.EpisodeID
	case domain.CuratorMusic:
		detailID = r.AlbumID
	case domain.CuratorBook:
		detailID = r.BookID
	}
	if detailID != 0 {
		item.DetailItemID = detailID
		item.HasDetailItemID = true
	}
	return item
}

func (g *HTTPGateway) refreshMonitoredDownloads(ctx context.Context) error {
	body := map[string]string{"name": "RefreshMonitoredDownloads"}
	return g.post(ctx, "/api/v3/command", body, nil)
}

func (g *HTTPGateway) RemoveQueueEntry(ctx context.Context, queueEntryID int64, blocklist bool) (bool, error) {
	path := fmt.Sprintf("/api/v3/queue/%d?removeFromClient=true&blocklist=%t", queueEntryID, blocklist)
	if err := g.delete(ctx, path); err != nil {
		if apperr.Is(err, apperr.KindActionRejected) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type detailItemResponse struct {
	Monitored bool `json:"monitored"`
}

func (g *HTTPGateway) IsMonitored(ctx context.Context, detailItemID int64) (bool, error) {
	path := fmt.Sprintf("/api/v3/%s/%d", g.kind.DetailItemKind(), detailItemID)
	var resp detailItemResponse
	if err := g.get(ctx, path, &resp); err != nil {
		return false, err
	}
	return resp.Monitored, nil
}

type wantedResponse struct {
	Records []wantedRecord `json:"records"`
}

type wantedRecord struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	LastSearchTime *int64 `json:"lastSearchTime"`
	SeriesID       int64  `json:"seriesId"`
	SeasonNumber   int    `json:"seasonNumber"`
	EpisodeNumber  int    `json:"episodeNumber"`
}

func (g *HTTPGateway) ListWanted(ctx context.Context, kind WantedKind) ([]domain.WantedItem, error) {
	if !g.kind.SupportsSearch() {
		return nil, nil
	}

	endpoint := "missing"
	if kind == WantedCutoff {
		endpoint = "cutoff"
	}
	path := fmt.Sprintf("/api/v3/wanted/%s?pageSize=1000", endpoint)

	var resp wantedResponse
	if err := g.get(ctx, path, &resp); err != nil {
		return nil, err
	}

	items := make([]domain.WantedItem, 0, len(resp.Records))
	for _, r := range resp.Records {
		items = append(items, domain.WantedItem{
			DetailItemID:   r.ID,
			Title:          r.Title,
			LastSearchTime: r.LastSearchTime,
			SeriesID:       r.SeriesID,
			SeasonNumber:   r.SeasonNumber,
			EpisodeNumber:  r.EpisodeNumber,
		})
	}
	return items, nil
}

func (g *HTTPGateway) CommandSearch(ctx context.Context, detailItemIDs []int64) error {
	if !g.kind.SupportsSearch() || len(detailItemIDs) == 0 {
		return nil
	}
	body := map[string]any{
		"name":                   g.kind.SearchCommandName(),
		g.kind.DetailItemIDsKey(): detailItemIDs,
	}
	return g.post(ctx, "/api/v3/command", body, nil)
}

type downloadClientResponse struct {
	Name           string `json:"name"`
	Implementation string `json:"implementation"`
	Protocol       string `json:"protocol"`
}

func (g *HTTPGateway) ListDownloadClientsBinding(ctx context.Context) ([]DownloadClientBinding, error) {
	var resp []downloadClientResponse
	if err := g.get(ctx, "/api/v3/downloadclient", &resp); err != nil {
		return nil, err
	}

	out := make([]DownloadClientBinding, 0, len(resp))
	for _, dc := range resp {
		kind := domain.DownloadClientUsenet
		if strings.EqualFold(dc.Protocol, "torrent") {
			kind = domain.DownloadClientTorrent
		}
		out = append(out, DownloadClientBinding{Name: dc.Name, Kind: kind})
	}
	return out, nil
}

type rootFolderResponse struct {
	Path       string `json:"path"`
	Accessible bool   `json:"accessible"`
}

func (g *HTTPGateway) ListRootFolders(ctx context.Context) ([]RootFolder, error) {
	var resp []rootFolderResponse
	if err := g.get(ctx, "/api/v3/rootfolder", &resp); err != nil {
		return nil, err
	}
	out := make([]RootFolder, 0, len(resp))
	for _, rf := range resp {
		out = append(out, RootFolder{Path: rf.Path, Accessible: rf.Accessible})
	}
	return out, nil
}

func (g *HTTPGateway) FindItemByPath(ctx context.Context, path string) (int64, bool, error) {
	var resp struct {
		ID    int64 `json:"id"`
		Found bool  `json:"found"`
	}
	q := url.Values{"path": {path}}
	if err := g.get(ctx, "/api/v3/parse?"+q.Encode(), &resp); err != nil {
		return 0, false, err
	}
	return resp.ID, resp.Found, nil
}

func (g *HTTPGateway) RefreshItem(ctx context.Context, detailItemID int64) error {
	body := map[string]any{
		"name":                    "RescanFolder",
		g.kind.DetailItemIDsKey(): []int64{detailItemID},
	}
	return g.post(ctx, "/api/v3/command", body, nil)
}

// --- transport plumbing ---

func (g *HTTPGateway) get(ctx context.Context, path string, out any) error {
	return g.do(ctx, http.MethodGet, path, nil, out)
}

func (g *HTTPGateway) post(ctx context.Context, path string, body any, out any) error {
	return g.do(ctx, http.MethodPost, path, body, out)
}

func (g *HTTPGateway) delete(ctx context.Context, path string) error {
	return g.do(ctx, http.MethodDelete, path, nil, nil)
}

// do performs one HTTP call with retry, honoring testRun mode: every
// mutating method (POST/PUT/DELETE) short-circuits to a synthetic success
// without touching the network, enforced here at the gateway layer so
// every removal/search job benefits without opt-in (spec §7).
func (g *HTTPGateway) do(ctx context.Context, method, path string, body any, out any) error {
	if g.testRun && method != http.MethodGet {
		log.Debug().Str("curator", g.name).Str("method", method).Str("path", path).
			Msg("curator: test-run mode, suppressing mutating call")
		return nil
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return apperr.New(apperr.KindBadResponse, "curator.do", g.name, err)
		}
	}

	return retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return retry.Unrecoverable(apperr.New(apperr.KindBadResponse, "curator.do", g.name, err))
		}
		req.Header.Set("X-Api-Key", g.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := g.http.Do(req)
		if err != nil {
			return apperr.New(apperr.KindBackendUnreachable, "curator.do", g.name, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return retry.Unrecoverable(apperr.New(apperr.KindAuthFailed, "curator.do", g.name, nil))
		case resp.StatusCode >= 500:
			return apperr.New(apperr.KindBackendUnreachable, "curator.do", g.name, fmt.Errorf("status %d", resp.StatusCode))
		case resp.StatusCode >= 400:
			return retry.Unrecoverable(apperr.New(apperr.KindActionRejected, "curator.do", g.name, fmt.Errorf("status %d", resp.StatusCode)))
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retry.Unrecoverable(apperr.New(apperr.KindBadResponse, "curator.do", g.name, err))
		}
		return nil
	}, retry.Attempts(3), retry.Context(ctx), retry.LastErrorOnly(true))
}
