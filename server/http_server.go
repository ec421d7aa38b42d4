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

package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/massenz/slf4go/logging"

	"github.com/ampel/go-trafficlight/api"
	"github.com/ampel/go-trafficlight/driver"
)

const (
	Api                 = "/api/v1"
	HealthEndpoint      = "/health"
	FixtureEndpoint     = Api + "/fixture"
	EventsEndpoint      = FixtureEndpoint + "/events"
	TransitionsEndpoint = FixtureEndpoint + "/transitions"
)

var (
	// Release carries the version of the binary, as set by the build script
	Release string

	shouldTrace bool
	logger      = log.NewLog("server")

	fixture *driver.Loop
	events  chan<- api.Event
)

func trace(endpoint string) func() {
	if !shouldTrace {
		return func() {}
	}
	start := time.Now()
	logger.Trace("Handling: [%s]\n", endpoint)
	return func() { logger.Trace("%s took %s\n", endpoint, time.Since(start)) }
}

func defaultContent(w http.ResponseWriter) {
	w.Header().Add(ContentType, ApplicationJson)
}

func EnableTracing() {
	shouldTrace = true
	logger.Level = log.TRACE
}

func SetLogLevel(level log.LogLevel) {
	logger.Level = level
}

// SetFixture wires the driver loop whose snapshot the server reports, and
// the channel injected events are posted on.
func SetFixture(loop *driver.Loop, eventsCh chan<- api.Event) {
	fixture = loop
	events = eventsCh
}

// NewRouter returns a gorilla/mux Router for the server routes; exposed so
// that the routes are testable.
func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(HealthEndpoint, HealthHandler).Methods("GET")
	r.HandleFunc(FixtureEndpoint, GetFixtureHandler).Methods("GET")
	r.HandleFunc(EventsEndpoint, PostEventHandler).Methods("POST")
	r.HandleFunc(TransitionsEndpoint, GetTransitionsHandler).Methods("GET")
	return r
}

func NewHTTPServer(addr string, logLevel log.LogLevel) *http.Server {
	logger.Level = logLevel
	return &http.Server{
		Addr:    addr,
		Handler: NewRouter(),
	}
}
