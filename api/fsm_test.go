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

package api_test

import (
	"time"

	log "github.com/massenz/slf4go/logging"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	. "github.com/ampel/go-trafficlight/api"
)

// recorder captures every StartTimer invocation, so tests can assert on
// both the count and the durations.
type recorder struct {
	armed []time.Duration
}

func (r *recorder) StartTimer(d time.Duration) {
	r.armed = append(r.armed, d)
}

var _ = Describe("Transition Engine", func() {
	var (
		timings Timings
		sink    *recorder
		engine  *Engine
	)

	BeforeEach(func() {
		Logger = log.NullLog
		timings = DefaultTimings()
		sink = &recorder{}
		var err error
		engine, err = NewEngine(timings, sink)
		Expect(err).ToNot(HaveOccurred())
	})

	Context("when being created", func() {
		It("requires a timer sink", func() {
			_, err := NewEngine(timings, nil)
			Expect(err).To(MatchError(NilSinkError))
		})
		It("rejects invalid timings", func() {
			_, err := NewEngine(Timings{}, sink)
			Expect(err).To(MatchError(InvalidTimingsError))
		})
		It("accepts a plain function as the sink", func() {
			var got time.Duration
			e, err := NewEngine(timings, TimerFunc(func(d time.Duration) { got = d }))
			Expect(err).ToNot(HaveOccurred())
			Expect(e.Init()).To(Equal(Red))
			Expect(got).To(Equal(timings.Red))
		})
	})

	Context("when initialized", func() {
		It("starts at Red with Red's countdown armed", func() {
			Expect(engine.Init()).To(Equal(Red))
			Expect(sink.armed).To(Equal([]time.Duration{timings.Red}))
		})
	})

	Context("on Timeout events", func() {
		It("walks the full cycle back to Red", func() {
			state := Red
			var seen []State
			for i := 0; i < 4; i++ {
				state = engine.PostEvent(state, Timeout)
				seen = append(seen, state)
			}
			Expect(seen).To(Equal([]State{RedYellow, Green, Yellow, Red}))
		})
		It("arms each entered phase with its configured duration", func() {
			state := Red
			for i := 0; i < 4; i++ {
				state = engine.PostEvent(state, Timeout)
			}
			Expect(sink.armed).To(Equal([]time.Duration{
				timings.RedYellow, timings.Green, timings.Yellow, timings.Red,
			}))
		})
	})

	Context("on faults", func() {
		It("absorbs LightsBroken from every timed phase", func() {
			for _, from := range []State{Red, RedYellow, Green, Yellow} {
				Expect(engine.PostEvent(from, LightsBroken)).To(Equal(Broken))
			}
		})
		It("never arms a countdown when entering Broken", func() {
			engine.PostEvent(Green, LightsBroken)
			Expect(sink.armed).To(BeEmpty())
		})
		It("ignores a repeated LightsBroken", func() {
			Expect(engine.PostEvent(Broken, LightsBroken)).To(Equal(Broken))
			Expect(sink.armed).To(BeEmpty())
		})
		It("ignores Timeout while Broken", func() {
			Expect(engine.PostEvent(Broken, Timeout)).To(Equal(Broken))
			Expect(sink.armed).To(BeEmpty())
		})
	})

	Context("on repair", func() {
		It("restarts at Red with Red's full countdown", func() {
			Expect(engine.PostEvent(Broken, LightsRepaired)).To(Equal(Red))
			Expect(sink.armed).To(Equal([]time.Duration{timings.Red}))
		})
		It("ignores LightsRepaired when nothing is broken", func() {
			Expect(engine.PostEvent(Red, LightsRepaired)).To(Equal(Red))
			Expect(sink.armed).To(BeEmpty())
		})
	})

	Context("over the whole State x Event product", func() {
		It("is total and closed", func() {
			for _, from := range AllStates {
				for _, event := range AllEvents {
					next := engine.PostEvent(from, event)
					Expect(AllStates).To(ContainElement(next))
				}
			}
		})
		It("arms a countdown only on transitions into a timed phase", func() {
			for _, from := range AllStates {
				for _, event := range AllEvents {
					before := len(sink.armed)
					next := engine.PostEvent(from, event)
					calls := len(sink.armed) - before
					if next != from && next.IsTimed() {
						Expect(calls).To(Equal(1),
							"expected one arm for %s + %s", from, event)
					} else {
						Expect(calls).To(BeZero(),
							"expected no arm for %s + %s", from, event)
					}
				}
			}
		})
	})

	Context("through a realistic fixture lifetime", func() {
		It("handles fault and repair mid-cycle", func() {
			state := engine.Init()
			Expect(state).To(Equal(Red))

			state = engine.PostEvent(state, Timeout)
			Expect(state).To(Equal(RedYellow))

			state = engine.PostEvent(state, LightsBroken)
			Expect(state).To(Equal(Broken))

			state = engine.PostEvent(state, Timeout)
			Expect(state).To(Equal(Broken))

			state = engine.PostEvent(state, LightsRepaired)
			Expect(state).To(Equal(Red))

			Expect(sink.armed).To(Equal([]time.Duration{
				timings.Red, timings.RedYellow, timings.Red,
			}))
		})
	})
})
