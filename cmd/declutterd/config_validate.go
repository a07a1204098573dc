// Copyright (c) 2025-2026, the declutterd contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/declutterd/declutterd/internal/config"
)

// RunConfigCommand groups config-file subcommands under `declutterd config`.
func RunConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Config file operations",
	}
	cmd.AddCommand(runConfigValidateCommand())
	return cmd
}

func runConfigValidateCommand() *cobra.Command {
	var print bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the config file, reporting the first error found",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			cmd.Println("config is valid")
			if print {
				out, err := yaml.Marshal(cfg)
				if err != nil {
					return err
				}
				cmd.Println("---")
				cmd.Print(string(out))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&print, "print", false, "print the fully resolved config (defaults + overrides) as YAML")
	return cmd
}
