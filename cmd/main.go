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

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/massenz/slf4go/logging"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/pflag"

	"github.com/ampel/go-trafficlight/api"
	"github.com/ampel/go-trafficlight/driver"
	"github.com/ampel/go-trafficlight/server"
)

var logger = log.NewLog("trafficlight")

// Config carries the process configuration; every field can be set from
// the environment and overridden on the command line.
type Config struct {
	HTTPAddr    string `env:"TRAFFIC_HTTP_ADDR,default=:8089"`
	TimingsFile string `env:"TRAFFIC_TIMINGS"`
	Debug       bool   `env:"TRAFFIC_DEBUG"`
	Trace       bool   `env:"TRAFFIC_TRACE"`
	NoInput     bool   `env:"TRAFFIC_NO_INPUT"`
}

// To generate the LightsBroken and LightsRepaired events, type the
// letters b or r respectively, followed by RETURN; or POST them to the
// control API.
func main() {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		logger.Fatal(err)
	}
	pflag.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr,
		"Address for the control API; set to the empty string to disable it")
	pflag.StringVar(&cfg.TimingsFile, "config", cfg.TimingsFile,
		"YAML file with the per-phase durations (in milliseconds); "+
			"built-in defaults are used when empty")
	pflag.BoolVar(&cfg.Debug, "debug", cfg.Debug,
		"Verbose logs; better to avoid on Production services")
	pflag.BoolVar(&cfg.Trace, "trace", cfg.Trace,
		"Extremely verbose logs for every transition and API request; "+
			"will override the --debug option")
	pflag.BoolVar(&cfg.NoInput, "no-input", cfg.NoInput,
		"Do not read events from the console (headless mode)")
	pflag.Parse()

	timings := api.DefaultTimings()
	if cfg.TimingsFile != "" {
		var err error
		timings, err = api.TimingsFromFile(cfg.TimingsFile)
		if err != nil {
			logger.Fatal(err)
		}
		logger.Info("loaded phase timings from %s", cfg.TimingsFile)
	}

	// eventsCh is the channel over which the driver Loop receives the
	// externally-generated events; both the console reader and the HTTP
	// server produce into it. Timeout events never travel on it, they
	// are generated by the Loop's own countdown.
	eventsCh := make(chan api.Event, 1)
	notificationsCh := make(chan api.TransitionRecord)

	loop, err := driver.NewLoop(timings, &driver.LoopOptions{
		Inputs:        eventsCh,
		Notifications: notificationsCh,
	})
	if err != nil {
		logger.Fatal(err)
	}
	setLogLevel(loop, cfg.Debug, cfg.Trace)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		loop.Run(done)
	}()

	// Render the fixture phase to the console, one line per transition.
	fmt.Printf("State: %s\n", loop.Snapshot().State)
	go func() {
		for record := range notificationsCh {
			fmt.Printf("State: %s\n", record.To)
		}
	}()

	if !cfg.NoInput {
		keyboard := driver.NewKeyboardSource(os.Stdin, eventsCh)
		if cfg.Trace {
			keyboard.SetLogLevel(log.TRACE)
		}
		go keyboard.Read(done)
	}

	if cfg.HTTPAddr != "" {
		server.SetFixture(loop, eventsCh)
		if cfg.Trace {
			server.EnableTracing()
		}
		srv := server.NewHTTPServer(cfg.HTTPAddr, serverLogLevel(cfg.Debug, cfg.Trace))
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal(err)
			}
		}()
		logger.Info("control API listening on %s", cfg.HTTPAddr)
	}

	RunUntilStopped(done)
	wg.Wait()
	logger.Info("...done. Goodbye.")
}

// RunUntilStopped traps Ctrl-C and SIGTERM (Docker/Kubernetes) to shut
// down gracefully.
func RunUntilStopped(done chan struct{}) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Block until a signal is received.
	<-c
	logger.Info("shutting down services...")
	close(done)
}

// setLogLevel sets the logging level depending on --debug / --trace.
// If both are set, then --trace takes priority.
func setLogLevel(loop *driver.Loop, debug bool, trace bool) {
	if trace {
		logger.Info("trace logging enabled")
		logger.Level = log.TRACE
		loop.SetLogLevel(log.TRACE)
	} else if debug {
		logger.Info("verbose logging enabled")
		logger.Level = log.DEBUG
		loop.SetLogLevel(log.DEBUG)
	}
}

func serverLogLevel(debug bool, trace bool) log.LogLevel {
	if trace {
		return log.TRACE
	}
	if debug {
		return log.DEBUG
	}
	return log.INFO
}
