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

package driver

import (
	"sync"
	"time"

	log "github.com/massenz/slf4go/logging"

	"github.com/ampel/go-trafficlight/api"
)

const (
	// historyLimit bounds the number of TransitionRecords retained.
	historyLimit = 64

	// idleWait is the poll interval while no countdown is armed (fault
	// mode). A Timeout fired after it is ignored by the transition table,
	// so the exact value only affects how often the loop wakes up.
	idleWait = time.Hour
)

// Status is a consistent reading of the fixture: the current phase and
// the time remaining in it (zero when no countdown is armed). The two
// are always captured under the same lock, so an observer never sees a
// new phase paired with a stale countdown.
type Status struct {
	State     api.State
	Remaining time.Duration
}

type LoopOptions struct {
	// Inputs is the channel external events arrive on (keyboard, HTTP).
	Inputs <-chan api.Event
	// Notifications, if set, receives a TransitionRecord for every
	// applied transition; the consumer must keep draining it.
	Notifications chan<- api.TransitionRecord
}

// Loop is the fixture driver: it owns the current State and the armed
// countdown, waits for either an input event or the countdown to elapse,
// and feeds exactly one event per iteration into the Engine, replacing
// its held state with the returned one.
//
// Loop implements api.TimerSink: arming a new countdown replaces any
// prior one (last-write-wins), which is how a transition supersedes an
// in-flight timer without any cancellation primitive.
type Loop struct {
	logger        *log.Log
	engine        *api.Engine
	inputs        <-chan api.Event
	notifications chan<- api.TransitionRecord

	// mux guards state, deadline, armed and history as a single unit.
	mux      sync.Mutex
	state    api.State
	deadline time.Time
	armed    bool
	history  []api.TransitionRecord
}

func NewLoop(timings api.Timings, options *LoopOptions) (*Loop, error) {
	loop := &Loop{
		logger:        log.NewLog("driver"),
		inputs:        options.Inputs,
		notifications: options.Notifications,
	}
	engine, err := api.NewEngine(timings, loop)
	if err != nil {
		return nil, err
	}
	loop.engine = engine
	loop.mux.Lock()
	loop.state = engine.Init()
	loop.mux.Unlock()
	return loop, nil
}

// SetLogLevel to implement the log.Loggable interface
func (l *Loop) SetLogLevel(level log.LogLevel) {
	l.logger.Level = level
	l.engine.SetLogLevel(level)
}

// StartTimer implements api.TimerSink. The Engine only ever invokes it
// from inside a dispatch, where the loop's lock is already held; it must
// not be called from anywhere else.
func (l *Loop) StartTimer(d time.Duration) {
	l.deadline = time.Now().Add(d)
	l.armed = true
}

// Run drives the fixture until `done` is closed or the inputs channel is
// closed. Each iteration consumes at most one event: whichever of the
// armed countdown or an external input wins the wait.
func (l *Loop) Run(done <-chan struct{}) {
	l.logger.Info("fixture driver started in state [%s]", l.Snapshot().State)
	timer := time.NewTimer(l.nextWait())
	defer timer.Stop()
	for {
		select {
		case <-done:
			l.logger.Info("fixture driver stopped")
			return
		case event, ok := <-l.inputs:
			if !ok {
				l.logger.Info("inputs channel closed, fixture driver exiting")
				return
			}
			l.post(event)
		case <-timer.C:
			l.post(api.Timeout)
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(l.nextWait())
	}
}

// Snapshot returns the current phase and remaining countdown, read
// atomically.
func (l *Loop) Snapshot() Status {
	l.mux.Lock()
	defer l.mux.Unlock()
	status := Status{State: l.state}
	if l.armed {
		if remaining := time.Until(l.deadline); remaining > 0 {
			status.Remaining = remaining
		}
	}
	return status
}

// Transitions returns a copy of the retained transition history, oldest
// first.
func (l *Loop) Transitions() []api.TransitionRecord {
	l.mux.Lock()
	defer l.mux.Unlock()
	records := make([]api.TransitionRecord, len(l.history))
	copy(records, l.history)
	return records
}

func (l *Loop) post(event api.Event) {
	l.mux.Lock()
	from := l.state
	// The Engine re-arms the countdown through StartTimer for timed
	// targets; entering Broken disarms it instead. Ignored events leave
	// both the state and the countdown untouched.
	next := l.engine.PostEvent(from, event)
	l.state = next
	if next == api.Broken {
		l.armed = false
	}
	changed := next != from
	var record api.TransitionRecord
	if changed {
		record = api.NewRecord(from, event, next)
		l.history = append(l.history, record)
		if len(l.history) > historyLimit {
			l.history = l.history[1:]
		}
	}
	l.mux.Unlock()

	if changed && l.notifications != nil {
		l.notifications <- record
	}
}

func (l *Loop) nextWait() time.Duration {
	l.mux.Lock()
	defer l.mux.Unlock()
	if !l.armed {
		return idleWait
	}
	remaining := time.Until(l.deadline)
	if remaining < 0 {
		return 0
	}
	return remaining
}
