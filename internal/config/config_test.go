// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/declutterd/declutterd/internal/apperr"
	"github.com/declutterd/declutterd/internal/domain"
)

func validConfig() *Config {
	c := defaults()
	c.Instances = map[domain.CuratorKind][]InstanceConfig{
		domain.CuratorMovie: {{Name: "radarr", BaseURL: "http://localhost:7878", APIKey: "key"}},
	}
	return &c
}

func TestValidate_Defaults(t *testing.T) {
	c := validConfig()
	require.NoError(t, Validate(c))
}

func TestValidate_RejectsUnknownLogLevel(t *testing.T) {
	c := validConfig()
	c.General.LogLevel = "TRACE"
	err := Validate(c)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConfigInvalid))
}

func TestValidate_RejectsZeroTimer(t *testing.T) {
	c := validConfig()
	c.General.Timer = 0
	err := Validate(c)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConfigInvalid))
}

func TestValidate_RejectsUnknownJob(t *testing.T) {
	c := validConfig()
	c.Jobs = map[string]JobConfig{"remove_nonexistent": {Enabled: true}}
	err := Validate(c)
	require.Error(t, err)
}

func TestValidate_RejectsNoInstances(t *testing.T) {
	c := defaults()
	err := Validate(&c)
	require.Error(t, err)
}

func TestValidate_RejectsUnknownTrackerHandling(t *testing.T) {
	c := validConfig()
	c.General.PrivateTrackerHandling = "burn_it_down"
	err := Validate(c)
	require.Error(t, err)
}

func TestJobConfig_Resolve(t *testing.T) {
	d := JobDefaults{MaxStrikes: 3, MinSpeedKBs: 100}
	overriddenStrikes := 5
	j := JobConfig{Enabled: true, MaxStrikes: &overriddenStrikes}

	resolved := j.Resolve(d)
	assert.Equal(t, 5, resolved.MaxStrikes)
	assert.Equal(t, 100, resolved.MinSpeedKBs)
}

func TestConfig_JobEnabled_DefaultsToTrue(t *testing.T) {
	c := validConfig()
	assert.True(t, c.JobEnabled("remove_slow"))
}

func TestConfig_JobEnabled_ExplicitDisable(t *testing.T) {
	c := validConfig()
	c.Jobs["remove_slow"] = JobConfig{Enabled: false}
	assert.False(t, c.JobEnabled("remove_slow"))
}

func TestConfig_JobSettings_FallsBackToDefaults(t *testing.T) {
	c := validConfig()
	settings := c.JobSettings("remove_stalled")
	assert.Equal(t, c.JobDefaults.MaxStrikes, settings.MaxStrikes)
}
