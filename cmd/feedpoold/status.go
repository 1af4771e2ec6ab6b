// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/feedpool/internal/config"
	"github.com/ManuGH/feedpool/internal/coordinator"
)

func newStatusCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show pool and playback state of a running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := &http.Client{Timeout: 5 * time.Second}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, "http://"+addr+"/debug/coordinator", nil)
			if err != nil {
				return err
			}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("daemon not reachable at %s: %w", addr, err)
			}
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("daemon answered %s", resp.Status)
			}

			var snap coordinator.Snapshot
			if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
				return fmt.Errorf("decode status: %w", err)
			}
			st := snap.Stats
			fmt.Fprintf(cmd.OutOrStdout(), "pool      %d/%d bound (%.0f%%)\n", st.Pool.Active, st.Pool.Max, st.Pool.Utilization)
			fmt.Fprintf(cmd.OutOrStdout(), "tracked   %d (playing %d, paused %d, waiting %d, needs event %d)\n",
				st.Tracked, st.Playing, st.Paused, st.Waiting, st.NeedsEvent)
			fmt.Fprintf(cmd.OutOrStdout(), "counters  evictions %d, failures %d, timeouts %d, stale %d\n",
				st.Evictions, st.Failures, st.Timeouts, st.StaleEvents)
			for _, it := range snap.Items {
				if it.Handle == nil {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  [%d] %-12s %-10s %-8s %.2f\n", *it.Handle, it.ItemID, it.Phase, it.BandName, it.Fraction)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", config.Defaults().Diagnostics.ListenAddr, "diagnostics address of the daemon")
	return cmd
}
