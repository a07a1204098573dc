// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"github.com/spf13/cobra"
)

var configPath string

func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "declutterd",
		Short: "Queue cleanup daemon for media-library curator applications",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the declutterd config file")

	cmd.AddCommand(RunServeCommand())
	cmd.AddCommand(RunConfigCommand())
	return cmd
}

// Execute is the process entrypoint cobra hands back to main().
func Execute() error {
	return rootCommand().Execute()
}
