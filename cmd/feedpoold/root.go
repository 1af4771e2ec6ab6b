// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "feedpoold",
		Short:         "Video feed player pool daemon",
		Long:          "feedpoold binds a fixed pool of video players to the feed items that are most visible and drives their playback.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (YAML)")

	root.AddCommand(
		newRunCmd(opts),
		newValidateCmd(opts),
		newStatusCmd(),
		newVersionCmd(),
	)
	return root
}
