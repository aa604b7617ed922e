// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldTraceID   = "trace_id"
	FieldPanelID   = "panel_id"
	FieldElementID = "element_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Presentation fields
	FieldState     = "state"
	FieldCandidate = "candidate"
	FieldCursor    = "cursor"
	FieldLocator   = "locator"
	FieldContainer = "container"
	FieldPrevOwner = "previous_owner"

	// Media fields
	FieldCodec      = "codec"
	FieldResolution = "resolution"
	FieldFormat     = "format"

	// State machine fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path / URL fields
	FieldPath     = "path"
	FieldBasePath = "base_path"
)
