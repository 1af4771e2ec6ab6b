// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import "errors"

var (
	// ErrMissingConfig is returned when an app is created without a config holder.
	ErrMissingConfig = errors.New("config holder is required")

	// ErrMissingCoordinator is returned when a feeder is created without a coordinator.
	ErrMissingCoordinator = errors.New("coordinator is required")
)
