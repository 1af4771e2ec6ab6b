// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldItemID    = "item_id"
	FieldCommandID = "command_id"
	FieldRequestID = "request_id"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"

	// Process / loop fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldHandle    = "handle"
	FieldCommand   = "command"

	// Viewability fields
	FieldBand     = "band"
	FieldOldBand  = "old_band"
	FieldNewBand  = "new_band"
	FieldFraction = "fraction"
	FieldSeq      = "seq"
	FieldProfile  = "profile"

	// Pool / policy fields
	FieldPriority = "priority"
	FieldCategory = "category"
	FieldVictim   = "victim"
	FieldFree     = "free"
	FieldCapacity = "capacity"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path fields
	FieldPath = "path"
)
