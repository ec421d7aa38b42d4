/*
 * Copyright (c) 2023 Ampel Labs.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"time"

	"github.com/google/uuid"
)

// State is one of the fixture phases. The set is closed: no value outside
// the five constants below is ever constructed by this package.
type State int

const (
	Red State = iota
	RedYellow
	Green
	Yellow
	Broken
)

// AllStates enumerates every State, in declaration order.
var AllStates = []State{Red, RedYellow, Green, Yellow, Broken}

func (s State) String() string {
	switch s {
	case Red:
		return "red"
	case RedYellow:
		return "red_yellow"
	case Green:
		return "green"
	case Yellow:
		return "yellow"
	case Broken:
		return "broken"
	}
	return "invalid"
}

// IsTimed reports whether the phase is exited by an elapsing countdown.
// Broken waits indefinitely for a repair instead.
func (s State) IsTimed() bool {
	return s != Broken
}

// Event is one of the inputs the fixture reacts to. Like State, the set
// is closed; there is no "unknown event" value.
type Event int

const (
	Timeout Event = iota
	LightsBroken
	LightsRepaired
)

// AllEvents enumerates every Event, in declaration order.
var AllEvents = []Event{Timeout, LightsBroken, LightsRepaired}

func (e Event) String() string {
	switch e {
	case Timeout:
		return "timeout"
	case LightsBroken:
		return "lights_broken"
	case LightsRepaired:
		return "lights_repaired"
	}
	return "invalid"
}

// ParseEvent maps a wire name (as emitted by Event.String) back to the
// Event; ok is false for any name outside the closed set, so callers on
// the edges (e.g., the HTTP server) can reject bad input before it ever
// reaches the Engine.
func ParseEvent(name string) (Event, bool) {
	for _, e := range AllEvents {
		if e.String() == name {
			return e, true
		}
	}
	return Timeout, false
}

// A TransitionRecord describes one applied transition; ignored events
// produce no record. These are what the notifications channel carries and
// what the HTTP surface returns for the transition history.
type TransitionRecord struct {
	RecordId  string    `json:"record_id"`
	Timestamp time.Time `json:"timestamp"`
	From      string    `json:"from"`
	Event     string    `json:"event"`
	To        string    `json:"to"`
}

// NewRecord stamps a transition with a unique ID and the current time.
func NewRecord(from State, event Event, to State) TransitionRecord {
	return TransitionRecord{
		RecordId:  uuid.NewString(),
		Timestamp: time.Now(),
		From:      from.String(),
		Event:     event.String(),
		To:        to.String(),
	}
}
