// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package scheduler

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declutterd/declutterd/internal/curator"
	"github.com/declutterd/declutterd/internal/domain"
	"github.com/declutterd/declutterd/internal/downloadclient"
	"github.com/declutterd/declutterd/internal/removal"
)

type fakeJob struct {
	name string
}

func (j *fakeJob) Name() string                 { return j.name }
func (j *fakeJob) Scope() domain.QueueScope      { return domain.ScopeNormal }
func (j *fakeJob) BlocklistOnRemoval() bool      { return false }
func (j *fakeJob) MaxStrikes() (int, bool)       { return 0, false }
func (j *fakeJob) Predicate(_ context.Context, items []domain.QueueItem) ([]domain.QueueItem, error) {
	return nil, nil
}

func TestSortJobs_MatchesFixedOrder(t *testing.T) {
	jobs := []removal.Job{
		&fakeJob{name: "remove_unmonitored"},
		&fakeJob{name: "remove_bad_files"},
		&fakeJob{name: "remove_slow"},
	}
	sorted := SortJobs(jobs)

	var names []string
	for _, j := range sorted {
		names = append(names, j.Name())
	}
	assert.Equal(t, []string{"remove_bad_files", "remove_slow", "remove_unmonitored"}, names)
}

func TestSortJobs_UnknownNamesGoLast(t *testing.T) {
	jobs := []removal.Job{
		&fakeJob{name: "remove_slow"},
		&fakeJob{name: "some_custom_job"},
		&fakeJob{name: "remove_bad_files"},
	}
	sorted := SortJobs(jobs)

	var names []string
	for _, j := range sorted {
		names = append(names, j.Name())
	}
	assert.Equal(t, []string{"remove_bad_files", "remove_slow", "some_custom_job"}, names)
}

type fakeTracker struct {
	beganCycle       bool
	refreshedPrivacy bool
}

func (t *fakeTracker) BeginCycle() { t.beganCycle = true }
func (t *fakeTracker) RefreshPrivateProtected(context.Context, []downloadclient.Client) error {
	t.refreshedPrivacy = true
	return nil
}

type fakeSchedClient struct {
	downloadclient.Client
	name      string
	connected bool
}

func (c *fakeSchedClient) Name() string                                 { return c.name }
func (c *fakeSchedClient) Kind() domain.DownloadClientKind               { return domain.DownloadClientTorrent }
func (c *fakeSchedClient) ProbeConnected(context.Context) (bool, error)  { return c.connected, nil }

func TestProcessCurator_SkipsWhenBoundClientDisconnected(t *testing.T) {
	registry := downloadclient.NewRegistry()
	registry.Register(&fakeSchedClient{name: "qbit", connected: false})

	tr := &fakeTracker{}
	c := &Curator{
		Name:     "radarr",
		Tracker:  tr,
		Bindings: []curator.DownloadClientBinding{{Name: "qbit"}},
	}

	s := New([]*Curator{c}, registry, 0, false, zerolog.Nop())
	s.processCurator(context.Background(), c)

	assert.False(t, tr.refreshedPrivacy, "disconnected binding must skip the cleanup pipeline entirely")
}

func TestSortJobs_DoesNotMutateInput(t *testing.T) {
	original := []removal.Job{&fakeJob{name: "remove_slow"}, &fakeJob{name: "remove_bad_files"}}
	_ = SortJobs(original)
	assert.Equal(t, "remove_slow", original[0].Name(), "SortJobs must not mutate its input slice")
}
