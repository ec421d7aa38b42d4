/*
 * Copyright (c) 2023 Ampel Labs.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package driver

import (
	"bufio"
	"io"
	"strings"

	"github.com/cenkalti/backoff"
	log "github.com/massenz/slf4go/logging"

	"github.com/ampel/go-trafficlight/api"
)

// KeyboardSource turns console input into fixture events, one per line:
// `b` breaks the lights, `r` repairs them; anything else is ignored.
// Timeout is deliberately not reachable from here, it belongs to the
// countdown alone.
type KeyboardSource struct {
	logger *log.Log
	input  io.Reader
	events chan<- api.Event
}

func NewKeyboardSource(input io.Reader, events chan<- api.Event) *KeyboardSource {
	return &KeyboardSource{
		logger: log.NewLog("keyboard"),
		input:  input,
		events: events,
	}
}

// SetLogLevel to implement the log.Loggable interface
func (k *KeyboardSource) SetLogLevel(level log.LogLevel) {
	k.logger.Level = level
}

// Read consumes the input until EOF or until `done` is closed. Transient
// read errors on the underlying wait primitive are the driver's problem,
// not the engine's: they are retried with exponential backoff.
func (k *KeyboardSource) Read(done <-chan struct{}) {
	operation := func() error {
		return k.scan(done)
	}
	if err := backoff.Retry(operation, backoff.NewExponentialBackOff()); err != nil {
		k.logger.Error("giving up on console input: %s", err)
	}
}

// scan reads lines until EOF (terminal) or a read error (retryable).
func (k *KeyboardSource) scan(done <-chan struct{}) error {
	scanner := bufio.NewScanner(k.input)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event api.Event
		switch line[0] {
		case 'b':
			event = api.LightsBroken
		case 'r':
			event = api.LightsRepaired
		default:
			k.logger.Debug("ignoring input [%s] (want `b` or `r`)", line)
			continue
		}
		select {
		case k.events <- event:
			k.logger.Debug("posted [%s] from console", event)
		case <-done:
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		k.logger.Warn("console read failed, will retry: %s", err)
		return err
	}
	return nil
}
