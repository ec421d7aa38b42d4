/*
 * Copyright (c) 2023 Ampel Labs.  All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0
 * http://www.apache.org/licenses/LICENSE-2.0
 */

package api

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var InvalidTimingsError = fmt.Errorf("phase durations must all be positive")

// Timings carries the countdown duration for each timed phase. Broken has
// no entry: fault mode never arms a timer.
type Timings struct {
	Red       time.Duration
	RedYellow time.Duration
	Green     time.Duration
	Yellow    time.Duration
}

// DefaultTimings is the built-in cycle, patterned on a common European
// sequence: long red and green, short transitional phases.
func DefaultTimings() Timings {
	return Timings{
		Red:       4 * time.Second,
		RedYellow: 1 * time.Second,
		Green:     4 * time.Second,
		Yellow:    2 * time.Second,
	}
}

func (t Timings) Validate() error {
	for _, d := range []time.Duration{t.Red, t.RedYellow, t.Green, t.Yellow} {
		if d <= 0 {
			return fmt.Errorf("%w: %+v", InvalidTimingsError, t)
		}
	}
	return nil
}

// For returns the configured duration for a timed phase; zero for Broken.
func (t Timings) For(s State) time.Duration {
	switch s {
	case Red:
		return t.Red
	case RedYellow:
		return t.RedYellow
	case Green:
		return t.Green
	case Yellow:
		return t.Yellow
	}
	return 0
}

// timingsDoc is the YAML shape; durations are whole milliseconds, the
// same unit the timer capability is specified in.
type timingsDoc struct {
	RedMs       int64 `yaml:"red_ms"`
	RedYellowMs int64 `yaml:"red_yellow_ms"`
	GreenMs     int64 `yaml:"green_ms"`
	YellowMs    int64 `yaml:"yellow_ms"`
}

// TimingsFromFile loads and validates phase durations from a YAML file.
func TimingsFromFile(path string) (Timings, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return Timings{}, err
	}
	var doc timingsDoc
	if err := yaml.Unmarshal(contents, &doc); err != nil {
		return Timings{}, err
	}
	timings := Timings{
		Red:       time.Duration(doc.RedMs) * time.Millisecond,
		RedYellow: time.Duration(doc.RedYellowMs) * time.Millisecond,
		Green:     time.Duration(doc.GreenMs) * time.Millisecond,
		Yellow:    time.Duration(doc.YellowMs) * time.Millisecond,
	}
	if err := timings.Validate(); err != nil {
		return Timings{}, err
	}
	return timings, nil
}
