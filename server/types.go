/*
 * Copyright (c) 2023 Ampel Labs.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package server

const (
	ContentType     = "Content-Type"
	ApplicationJson = "application/json"
)

// MessageResponse is returned when a more appropriate response is not available.
type MessageResponse struct {
	Msg   interface{} `json:"message,omitempty"`
	Error string      `json:"error,omitempty"`
}

// FixtureResponse reports a consistent snapshot of the fixture: the
// current phase and, for timed phases, the milliseconds left in it.
type FixtureResponse struct {
	State       string `json:"state"`
	RemainingMs int64  `json:"remaining_ms"`
}

// EventRequest injects an external event into the fixture. Only the fault
// events are accepted: `timeout` is reserved to the driver's countdown.
type EventRequest struct {
	Event string `json:"event"`
}
