// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package downloadclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go"

	"github.com/declutterd/declutterd/internal/apperr"
	"github.com/declutterd/declutterd/internal/domain"
)

// Usenet talks to a SABnzbd-compatible JSON API. No ecosystem client
// library for SABnzbd/NZBGet exists among the retrieved examples, so this
// is one of the few stdlib-only components in the tree (see DESIGN.md);
// it wraps its calls in retry-go, as the curator gateway does (the
// qBittorrent client's calls are not retried).
type Usenet struct {
	name    string
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewUsenet constructs a Usenet download client.
func NewUsenet(name, baseURL, apiKey string, httpClient *http.Client) *Usenet {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Usenet{name: name, baseURL: baseURL, apiKey: apiKey, http: httpClient}
}

func (u *Usenet) Kind() domain.DownloadClientKind { return domain.DownloadClientUsenet }
func (u *Usenet) Name() string                    { return u.name }

type sabnzbdQueueResponse struct {
	Queue struct {
		Status string `json:"status"`
		Slots  []struct {
			NzoID     string `json:"nzo_id"`
			Status    string `json:"status"`
			MB        string `json:"mb"`
			MBLeft    string `json:"mbleft"`
			TimeLeft  string `json:"timeleft"`
			Percentage string `json:"percentage"`
		} `json:"slots"`
	} `json:"queue"`
}

func (u *Usenet) ProbeConnected(ctx context.Context) (bool, error) {
	var resp sabnzbdQueueResponse
	err := u.call(ctx, "queue", map[string]string{"limit": "0"}, &resp)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (u *Usenet) ListItems(ctx context.Context, ids []string) ([]Item, error) {
	var resp sabnzbdQueueResponse
	if err := u.call(ctx, "queue", nil, &resp); err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	var items []Item
	for _, slot := range resp.Queue.Slots {
		if len(ids) > 0 {
			if _, ok := wanted[slot.NzoID]; !ok {
				continue
			}
		}
		mb, _ := strconv.ParseFloat(slot.MB, 64)
		mbLeft, _ := strconv.ParseFloat(slot.MBLeft, 64)
		items = append(items, Item{
			ID:              slot.NzoID,
			State:           slot.Status,
			Size:            int64(mb * 1024 * 1024),
			SizeLeft:        int64(mbLeft * 1024 * 1024),
			CompletedBytes:  int64((mb - mbLeft) * 1024 * 1024),
			TimeLeftSeconds: parseSabnzbdTimeLeft(slot.TimeLeft),
		})
	}
	return items, nil
}

func (u *Usenet) DownloadedBytes(ctx context.Context, id string) (int64, bool, error) {
	items, err := u.ListItems(ctx, []string{id})
	if err != nil {
		return 0, false, err
	}
	if len(items) == 0 {
		return 0, false, nil
	}
	return items[0].CompletedBytes, true, nil
}

func (u *Usenet) Remove(ctx context.Context, id string, deleteFiles bool) error {
	params := map[string]string{"name": "delete", "value": id}
	if deleteFiles {
		params["del_files"] = "1"
	}
	var resp struct {
		Status bool `json:"status"`
	}
	if err := u.call(ctx, "queue", params, &resp); err != nil {
		return err
	}
	if !resp.Status {
		return apperr.New(apperr.KindActionRejected, "usenet.remove", u.name, nil)
	}
	return nil
}

func (u *Usenet) call(ctx context.Context, mode string, extra map[string]string, out any) error {
	q := url.Values{}
	q.Set("mode", mode)
	q.Set("output", "json")
	q.Set("apikey", u.apiKey)
	for k, v := range extra {
		q.Set(k, v)
	}

	reqURL := fmt.Sprintf("%s/api?%s", u.baseURL, q.Encode())

	return retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return retry.Unrecoverable(apperr.New(apperr.KindBadResponse, "usenet.call", u.name, err))
		}

		resp, err := u.http.Do(req)
		if err != nil {
			return apperr.New(apperr.KindBackendUnreachable, "usenet.call", u.name, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return retry.Unrecoverable(apperr.New(apperr.KindAuthFailed, "usenet.call", u.name, nil))
		}
		if resp.StatusCode != http.StatusOK {
			return apperr.New(apperr.KindBackendUnreachable, "usenet.call", u.name, fmt.Errorf("status %d", resp.StatusCode))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retry.Unrecoverable(apperr.New(apperr.KindBadResponse, "usenet.call", u.name, err))
		}
		return nil
	}, retry.Attempts(3), retry.Context(ctx))
}

func parseSabnzbdTimeLeft(hhmmss string) int64 {
	var h, m, s int
	if _, err := fmt.Sscanf(hhmmss, "%d:%d:%d", &h, &m, &s); err != nil {
		return 0
	}
	return int64(h*3600 + m*60 + s)
}
