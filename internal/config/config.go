// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads and validates the single configuration tree the
// daemon runs from (spec §6). Loading is viper-backed so a YAML file and
// DECLUTTERD_-prefixed environment overrides compose the same way the
// pack's config-bearing repos wire viper; validation failures are always
// apperr.KindConfigInvalid, which the serve command's setup treats as
// fatal (spec §7).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/declutterd/declutterd/internal/apperr"
	"github.com/declutterd/declutterd/internal/domain"
)

// LogLevel is one of the three levels spec §6 names.
type LogLevel string

const (
	LogLevelDebug   LogLevel = "DEBUG"
	LogLevelVerbose LogLevel = "VERBOSE"
	LogLevelInfo    LogLevel = "INFO"
)

// TrackerHandling is one of the three dispositions for private/public
// tracker handling (spec §4.8).
type TrackerHandling string

const (
	HandlingRemove        TrackerHandling = "remove"
	HandlingSkip          TrackerHandling = "skip"
	HandlingTagAsObsolete TrackerHandling = "tag_as_obsolete"
)

// General is the top-level `general` config block.
type General struct {
	LogLevel                LogLevel        `mapstructure:"logLevel" yaml:"logLevel"`
	TestRun                 bool            `mapstructure:"testRun" yaml:"testRun"`
	Timer                   time.Duration   `mapstructure:"timer" yaml:"timer"`
	SSLVerification         bool            `mapstructure:"sslVerification" yaml:"sslVerification"`
	IgnoredDownloadClients  []string        `mapstructure:"ignoredDownloadClients" yaml:"ignoredDownloadClients"`
	PrivateTrackerHandling  TrackerHandling `mapstructure:"privateTrackerHandling" yaml:"privateTrackerHandling"`
	PublicTrackerHandling   TrackerHandling `mapstructure:"publicTrackerHandling" yaml:"publicTrackerHandling"`
	ObsoleteTag             string          `mapstructure:"obsoleteTag" yaml:"obsoleteTag"`
	ProtectedTag            string          `mapstructure:"protectedTag" yaml:"protectedTag"`
	ParallelCurators        bool            `mapstructure:"parallelCurators" yaml:"parallelCurators"`
	AdminListenAddr         string          `mapstructure:"adminListenAddr" yaml:"adminListenAddr"`
	LogFile                 string          `mapstructure:"logFile" yaml:"logFile"`
}

// JobDefaults is the `jobDefaults` block shared by every job unless
// overridden per-job.
type JobDefaults struct {
	MaxStrikes            int      `mapstructure:"maxStrikes" yaml:"maxStrikes"`
	MinSpeedKBs           int      `mapstructure:"minSpeedKBs" yaml:"minSpeedKBs"`
	MaxConcurrentSearches int      `mapstructure:"maxConcurrentSearches" yaml:"maxConcurrentSearches"`
	MinDaysBetweenSearches int     `mapstructure:"minDaysBetweenSearches" yaml:"minDaysBetweenSearches"`
	MessagePatterns       []string `mapstructure:"messagePatterns" yaml:"messagePatterns"`
}

// JobConfig is one entry under `jobs`: an object carrying `enabled` plus
// any JobDefaults overrides. A bare boolean entry is not decoded into it;
// Load returns an error for such an entry.
type JobConfig struct {
	Enabled                bool     `mapstructure:"enabled" yaml:"enabled"`
	MaxStrikes             *int     `mapstructure:"maxStrikes,omitempty" yaml:"maxStrikes,omitempty"`
	MinSpeedKBs            *int     `mapstructure:"minSpeedKBs,omitempty" yaml:"minSpeedKBs,omitempty"`
	MaxConcurrentSearches  *int     `mapstructure:"maxConcurrentSearches,omitempty" yaml:"maxConcurrentSearches,omitempty"`
	MinDaysBetweenSearches *int     `mapstructure:"minDaysBetweenSearches,omitempty" yaml:"minDaysBetweenSearches,omitempty"`
	MessagePatterns        []string `mapstructure:"messagePatterns,omitempty" yaml:"messagePatterns,omitempty"`
}

// Resolve merges a job's overrides onto JobDefaults; fields left nil keep
// the default.
func (j JobConfig) Resolve(d JobDefaults) JobDefaults {
	out := d
	if j.MaxStrikes != nil {
		out.MaxStrikes = *j.MaxStrikes
	}
	if j.MinSpeedKBs != nil {
		out.MinSpeedKBs = *j.MinSpeedKBs
	}
	if j.MaxConcurrentSearches != nil {
		out.MaxConcurrentSearches = *j.MaxConcurrentSearches
	}
	if j.MinDaysBetweenSearches != nil {
		out.MinDaysBetweenSearches = *j.MinDaysBetweenSearches
	}
	if len(j.MessagePatterns) > 0 {
		out.MessagePatterns = j.MessagePatterns
	}
	return out
}

// InstanceConfig is one entry under `instances.<kind>`.
type InstanceConfig struct {
	Name    string `mapstructure:"name" yaml:"name"`
	BaseURL string `mapstructure:"baseUrl" yaml:"baseUrl"`
	APIKey  string `mapstructure:"apiKey" yaml:"apiKey"`
}

// DownloadClientConfig is one entry under `downloadClients.<kind>`.
type DownloadClientConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	BaseURL  string `mapstructure:"baseUrl" yaml:"baseUrl"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	APIKey   string `mapstructure:"apiKey" yaml:"apiKey"`
}

// Config is the full configuration tree (spec §6).
type Config struct {
	General         General                                             `mapstructure:"general" yaml:"general"`
	JobDefaults     JobDefaults                                         `mapstructure:"jobDefaults" yaml:"jobDefaults"`
	Jobs            map[string]JobConfig                                `mapstructure:"jobs" yaml:"jobs"`
	Instances       map[domain.CuratorKind][]InstanceConfig             `mapstructure:"instances" yaml:"instances"`
	DownloadClients map[domain.DownloadClientKind][]DownloadClientConfig `mapstructure:"downloadClients" yaml:"downloadClients"`
}

// KnownJobs is every removal job name the engine recognizes (spec §4.3).
var KnownJobs = []string{
	"remove_bad_files",
	"remove_failed_downloads",
	"remove_failed_imports",
	"remove_metadata_missing",
	"remove_missing_files",
	"remove_orphans",
	"remove_slow",
	"remove_stalled",
	"remove_unmonitored",
}

func defaults() Config {
	return Config{
		General: General{
			LogLevel:               LogLevelInfo,
			Timer:                  10 * time.Minute,
			SSLVerification:        true,
			PrivateTrackerHandling: HandlingSkip,
			PublicTrackerHandling:  HandlingRemove,
			ObsoleteTag:            "obsolete",
			ProtectedTag:           "Keep",
			AdminListenAddr:        "127.0.0.1:8641",
		},
		JobDefaults: JobDefaults{
			MaxStrikes:             3,
			MinSpeedKBs:            100,
			MaxConcurrentSearches:  3,
			MinDaysBetweenSearches: 7,
			MessagePatterns:        []string{"*"},
		},
		Jobs: map[string]JobConfig{},
	}
}

// Load reads a YAML config file at path (if non-empty), applies
// DECLUTTERD_-prefixed environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DECLUTTERD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := defaults()
	v.SetDefault("general", def.General)
	v.SetDefault("jobDefaults", def.JobDefaults)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperr.New(apperr.KindConfigInvalid, "config.load", path, err)
		}
	}

	cfg := def
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperr.New(apperr.KindConfigInvalid, "config.load", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config tree for the structural errors that must be
// fatal at setup (spec §7 "ConfigInvalid ... always fatal").
func Validate(c *Config) error {
	switch c.General.LogLevel {
	case LogLevelDebug, LogLevelVerbose, LogLevelInfo:
	default:
		return apperr.New(apperr.KindConfigInvalid, "config.validate", "general.logLevel",
			fmt.Errorf("unrecognized log level %q", c.General.LogLevel))
	}

	if c.General.Timer <= 0 {
		return apperr.New(apperr.KindConfigInvalid, "config.validate", "general.timer",
			fmt.Errorf("timer must be positive, got %s", c.General.Timer))
	}

	for _, h := range []TrackerHandling{c.General.PrivateTrackerHandling, c.General.PublicTrackerHandling} {
		switch h {
		case HandlingRemove, HandlingSkip, HandlingTagAsObsolete, "":
		default:
			return apperr.New(apperr.KindConfigInvalid, "config.validate", "general.*TrackerHandling",
				fmt.Errorf("unrecognized handling mode %q", h))
		}
	}

	for kind := range c.Instances {
		if !kind.Valid() {
			return apperr.New(apperr.KindConfigInvalid, "config.validate", "instances",
				fmt.Errorf("unrecognized curator kind %q", kind))
		}
	}

	for jobName := range c.Jobs {
		if !knownJob(jobName) {
			return apperr.New(apperr.KindConfigInvalid, "config.validate", "jobs",
				fmt.Errorf("unrecognized job %q", jobName))
		}
	}

	if c.JobDefaults.MaxStrikes < 1 {
		return apperr.New(apperr.KindConfigInvalid, "config.validate", "jobDefaults.maxStrikes",
			fmt.Errorf("maxStrikes must be at least 1"))
	}

	hasAnyInstance := false
	for _, list := range c.Instances {
		if len(list) > 0 {
			hasAnyInstance = true
			break
		}
	}
	if !hasAnyInstance {
		return apperr.New(apperr.KindConfigInvalid, "config.validate", "instances",
			fmt.Errorf("at least one curator instance must be configured"))
	}

	return nil
}

func knownJob(name string) bool {
	for _, j := range KnownJobs {
		if j == name {
			return true
		}
	}
	return false
}

// JobEnabled reports whether a job is enabled: an absent entry in the
// jobs map defaults to enabled; a present entry is enabled only when its
// `enabled` field is true, so an entry that omits `enabled` turns the job
// off.
func (c *Config) JobEnabled(name string) bool {
	j, ok := c.Jobs[name]
	if !ok {
		return true
	}
	return j.Enabled
}

// JobSettings resolves the effective settings for a job: JobDefaults
// overridden by the job's own config block, if any.
func (c *Config) JobSettings(name string) JobDefaults {
	j, ok := c.Jobs[name]
	if !ok {
		return c.JobDefaults
	}
	return j.Resolve(c.JobDefaults)
}
