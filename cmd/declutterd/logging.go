// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/declutterd/declutterd/internal/config"
)

// verboseFieldKey tags log lines emitted at the VERBOSE level, since
// zerolog has no native level between debug and trace.
const verboseFieldKey = "verbose"

// newLogger configures the global-style logger for the process: a
// console writer when attached to a terminal, JSON otherwise, with
// optional file rotation when cfg.LogFile is set.
func newLogger(cfg config.General) zerolog.Logger {
	var level zerolog.Level
	switch cfg.LogLevel {
	case config.LogLevelDebug, config.LogLevelVerbose:
		level = zerolog.DebugLevel
	default:
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
	} else if isTerminal(os.Stderr) {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if cfg.LogLevel == config.LogLevelVerbose {
		logger = logger.With().Bool(verboseFieldKey, true).Logger()
	}
	return logger
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
