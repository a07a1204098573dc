// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package downloadclient

import (
	"sync"

	"github.com/declutterd/declutterd/internal/domain"
)

// Registry looks up configured DownloadClients by exact name, the
// reconciliation ActionDispatcher performs in spec §4.8 step 2 ("find the
// configured download client by exact name"). Registry also serializes
// per-client session mutation per spec §5 ("per-client session state is
// serialized per client"): callers that mutate a client's session must hold
// the per-client lock returned by Lock.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Client
	locks   map[string]*sync.Mutex
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Client),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Register adds a configured download client under its exact name.
func (r *Registry) Register(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[c.Name()] = c
	r.locks[c.Name()] = &sync.Mutex{}
}

// Lookup finds a client by exact name, returning ok=false if absent.
func (r *Registry) Lookup(name string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// LookupTorrentP2P finds a torrent-p2p client by exact name, returning
// ok=false if absent or the named client is a different kind — this is the
// exact lookup ActionDispatcher performs before deciding handling mode
// (spec §4.8 step 2).
func (r *Registry) LookupTorrentP2P(name string) (Client, bool) {
	c, ok := r.Lookup(name)
	if !ok || c.Kind() != domain.DownloadClientTorrent {
		return nil, false
	}
	return c, true
}

// HasAnyTorrentP2P reports whether at least one torrent-p2p client is
// configured at all (spec §4.8 step 2, third bullet).
func (r *Registry) HasAnyTorrentP2P() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.byName {
		if c.Kind() == domain.DownloadClientTorrent {
			return true
		}
	}
	return false
}

// AllTorrentP2P returns every configured torrent-p2p client, the set
// ActionDispatcher's tag_as_obsolete mode applies a tag to (spec §4.8
// step 3: "for every configured torrent-p2p client, applyTag").
func (r *Registry) AllTorrentP2P() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Client
	for _, c := range r.byName {
		if c.Kind() == domain.DownloadClientTorrent {
			out = append(out, c)
		}
	}
	return out
}

// All returns every registered client.
func (r *Registry) All() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Client, 0, len(r.byName))
	for _, c := range r.byName {
		out = append(out, c)
	}
	return out
}

// Lock returns the mutex serializing session mutation for the named
// client, creating one if the client is unregistered (defensive; should
// not happen once setup has completed).
func (r *Registry) Lock(name string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[name]
	if !ok {
		l = &sync.Mutex{}
		r.locks[name] = l
	}
	return l
}
