/*
 * Copyright (c) 2023 Ampel Labs.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package driver_test

import (
	"fmt"
	"io"
	"strings"

	log "github.com/massenz/slf4go/logging"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/ampel/go-trafficlight/api"
	"github.com/ampel/go-trafficlight/driver"
)

// flakyReader fails the first read, then serves the wrapped content; it
// simulates a transient failure of the underlying wait primitive.
type flakyReader struct {
	inner    io.Reader
	failures int
}

func (f *flakyReader) Read(p []byte) (int, error) {
	if f.failures > 0 {
		f.failures--
		return 0, fmt.Errorf("transient read error")
	}
	return f.inner.Read(p)
}

var _ = Describe("KeyboardSource", func() {
	var (
		events chan api.Event
		done   chan struct{}
	)

	BeforeEach(func() {
		events = make(chan api.Event, 8)
		done = make(chan struct{})
	})

	AfterEach(func() {
		close(done)
	})

	newSource := func(input io.Reader) *driver.KeyboardSource {
		source := driver.NewKeyboardSource(input, events)
		source.SetLogLevel(log.NONE)
		return source
	}

	It("maps b and r to the fault events", func() {
		source := newSource(strings.NewReader("b\nr\n"))
		go source.Read(done)

		Eventually(events).Should(Receive(Equal(api.LightsBroken)))
		Eventually(events).Should(Receive(Equal(api.LightsRepaired)))
	})

	It("ignores blank lines and unknown keys", func() {
		source := newSource(strings.NewReader("\nx\nhello\nb\n"))
		go source.Read(done)

		Eventually(events).Should(Receive(Equal(api.LightsBroken)))
		Consistently(events, "50ms").ShouldNot(Receive())
	})

	It("never emits a Timeout, whatever the input", func() {
		source := newSource(strings.NewReader("timeout\nt\n0\n"))
		go source.Read(done)

		Consistently(events, "50ms").ShouldNot(Receive())
	})

	It("retries after a transient read error", func() {
		source := newSource(&flakyReader{
			inner:    strings.NewReader("r\n"),
			failures: 1,
		})
		go source.Read(done)

		Eventually(events, "5s").Should(Receive(Equal(api.LightsRepaired)))
	})
})
