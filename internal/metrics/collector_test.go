// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector_RegistersAllCounters(t *testing.T) {
	r := prometheus.NewRegistry()
	c := NewCollector(r)

	c.CycleRunTotal.WithLabelValues("radarr").Inc()
	c.RemovalJobOffending.WithLabelValues("radarr", "remove_stalled").Add(3)
	c.SetDownloadClientConnected("qbit", "torrent-p2p", true)

	families, err := r.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestSetDownloadClientConnected_TogglesGaugeValue(t *testing.T) {
	r := prometheus.NewRegistry()
	c := NewCollector(r)

	c.SetDownloadClientConnected("qbit", "torrent-p2p", true)
	assert.Equal(t, float64(1), gaugeValue(t, c.DownloadClientConnected.WithLabelValues("qbit", "torrent-p2p")))

	c.SetDownloadClientConnected("qbit", "torrent-p2p", false)
	assert.Equal(t, float64(0), gaugeValue(t, c.DownloadClientConnected.WithLabelValues("qbit", "torrent-p2p")))
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}
