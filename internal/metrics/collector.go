// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package metrics exposes prometheus counters for cycle, removal-job,
// action, and search activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds every counter the cleanup cycle engine increments.
type Collector struct {
	CycleRunTotal          *prometheus.CounterVec
	QueueSize              *prometheus.GaugeVec
	RemovalJobOffending    *prometheus.CounterVec
	RemovalJobStruckOut    *prometheus.CounterVec
	ActionDispatched       *prometheus.CounterVec
	ActionRejected         *prometheus.CounterVec
	SearchIssued           *prometheus.CounterVec
	DownloadClientConnected *prometheus.GaugeVec
}

var curatorLabels = []string{"curator"}
var jobLabels = []string{"curator", "job"}
var actionLabels = []string{"curator", "mode"}
var searchLabels = []string{"curator", "variant"}
var clientLabels = []string{"client", "kind"}

// JobLabels builds the (curator, job) label values GetJobLabels-style
// callers pass to RemovalJobOffending/RemovalJobStruckOut.
func JobLabels(curatorName, jobName string) []string {
	return []string{curatorName, jobName}
}

// NewCollector constructs and registers every counter against r.
func NewCollector(r *prometheus.Registry) *Collector {
	c := &Collector{
		CycleRunTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "declutterd_cycle_run_total",
			Help: "Total number of cleanup cycles run, by curator",
		}, curatorLabels),
		QueueSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "declutterd_queue_size",
			Help: "Size of the curator's normal queue as of the last cycle",
		}, curatorLabels),
		RemovalJobOffending: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "declutterd_removal_job_offending_groups_total",
			Help: "Total offending download groups a removal job's predicate produced, before strike filtering",
		}, jobLabels),
		RemovalJobStruckOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "declutterd_removal_job_struck_out_groups_total",
			Help: "Total download groups that survived strike filtering and reached action dispatch",
		}, jobLabels),
		ActionDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "declutterd_action_dispatched_total",
			Help: "Total actions dispatched, by mode (remove, tag_as_obsolete, skip)",
		}, actionLabels),
		ActionRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "declutterd_action_rejected_total",
			Help: "Total actions the curator backend rejected (retried next cycle)",
		}, curatorLabels),
		SearchIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "declutterd_search_issued_total",
			Help: "Total guided search commands issued, by search variant",
		}, searchLabels),
		DownloadClientConnected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "declutterd_download_client_connected",
			Help: "Connectivity of a configured download client (1=connected, 0=disconnected)",
		}, clientLabels),
	}

	r.MustRegister(c.CycleRunTotal)
	r.MustRegister(c.QueueSize)
	r.MustRegister(c.RemovalJobOffending)
	r.MustRegister(c.RemovalJobStruckOut)
	r.MustRegister(c.ActionDispatched)
	r.MustRegister(c.ActionRejected)
	r.MustRegister(c.SearchIssued)
	r.MustRegister(c.DownloadClientConnected)
	return c
}

// SetDownloadClientConnected records a client's connectivity as a 0/1 gauge.
func (c *Collector) SetDownloadClientConnected(name, kind string, connected bool) {
	v := float64(0)
	if connected {
		v = 1
	}
	c.DownloadClientConnected.WithLabelValues(name, kind).Set(v)
}
