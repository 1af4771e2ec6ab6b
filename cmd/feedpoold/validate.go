// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ManuGH/feedpool/internal/config"
	"github.com/ManuGH/feedpool/internal/validate"
	"github.com/ManuGH/feedpool/internal/version"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewLoader(opts.configPath, version.Version).Load()
			if err != nil {
				var verr validate.ValidationError
				if errors.As(err, &verr) {
					for _, e := range verr.Errors() {
						cmd.PrintErrf("  %s: %s\n", e.Field, e.Message)
					}
				}
				return fmt.Errorf("configuration invalid: %w", err)
			}
			if _, err := cfg.Ladders(); err != nil {
				return fmt.Errorf("configuration invalid: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration valid (capacity %d, %d categories, %d profiles)\n",
				cfg.Pool.Capacity, len(cfg.Categories), len(cfg.Visibility.Profiles))
			return nil
		},
	}
}
