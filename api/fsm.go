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
	"fmt"
	"time"

	log "github.com/massenz/slf4go/logging"
)

var (
	NilSinkError = fmt.Errorf("a timer sink must be configured")

	// Logger is made accessible so that its `Level` can be changed,
	// or it can be swapped for a `NullLog` during testing.
	Logger = log.NewLog("fsm")
)

// TimerSink is the one capability the Engine requires from its
// environment: whoever implements it must deliver exactly one Timeout
// event no sooner than `d` from the call, unless superseded by a later
// StartTimer or by another event arriving first.
type TimerSink interface {
	StartTimer(d time.Duration)
}

// TimerFunc adapts a plain function to the TimerSink interface.
type TimerFunc func(d time.Duration)

func (f TimerFunc) StartTimer(d time.Duration) {
	f(d)
}

type transitionKey struct {
	From  State
	Event Event
}

// transitions is the full rule set: the regular cycle, fault entry from
// every timed phase, and recovery. Pairs absent from the map mean "event
// ignored in this state" - notably (Broken, Timeout) and a repeated
// LightsBroken, which keeps Broken absorbing until a repair.
var transitions = map[transitionKey]State{
	{Red, Timeout}:       RedYellow,
	{RedYellow, Timeout}: Green,
	{Green, Timeout}:     Yellow,
	{Yellow, Timeout}:    Red,

	{Red, LightsBroken}:       Broken,
	{RedYellow, LightsBroken}: Broken,
	{Green, LightsBroken}:     Broken,
	{Yellow, LightsBroken}:    Broken,

	{Broken, LightsRepaired}: Red,
}

// Engine applies the transition rules for a single fixture. It holds no
// current state of its own: the caller owns the State and passes it by
// value, receiving the next one back. Its only side effect is arming the
// TimerSink when a transition enters a timed phase.
type Engine struct {
	timings Timings
	sink    TimerSink
	logger  *log.Log
}

func NewEngine(timings Timings, sink TimerSink) (*Engine, error) {
	if sink == nil {
		return nil, NilSinkError
	}
	if err := timings.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		timings: timings,
		sink:    sink,
		logger:  Logger,
	}, nil
}

// SetLogLevel to implement the log.Loggable interface
func (e *Engine) SetLogLevel(level log.LogLevel) {
	e.logger.Level = level
}

// Init returns the starting state (Red) and arms its countdown.
func (e *Engine) Init() State {
	e.arm(Red)
	return Red
}

// PostEvent returns the next state for the (current, event) pair and, if
// the transition enters a timed phase, arms that phase's full duration -
// exactly once. A transition into Broken arms nothing. Unmapped pairs
// return `current` unchanged with no side effect: PostEvent is total over
// State x Event and never fails.
//
// A LightsRepaired event always restarts the cycle at Red with Red's full
// duration; the fixture does not resume the phase it was in when it broke.
func (e *Engine) PostEvent(current State, event Event) State {
	next, ok := transitions[transitionKey{From: current, Event: event}]
	if !ok {
		e.logger.Trace("event [%s] ignored in state [%s]", event, current)
		return current
	}
	e.logger.Debug("event [%s] transitioned fixture from [%s] to [%s]", event, current, next)
	if next.IsTimed() {
		e.arm(next)
	}
	return next
}

func (e *Engine) arm(s State) {
	d := e.timings.For(s)
	e.logger.Debug("arming [%s] countdown: %s", s, d)
	e.sink.StartTimer(d)
}
