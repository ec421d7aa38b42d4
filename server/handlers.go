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
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ampel/go-trafficlight/api"
)

// NOTE: We make the handlers "exportable" so they can be tested, do NOT call directly.

func GetFixtureHandler(w http.ResponseWriter, r *http.Request) {
	defer trace(r.RequestURI)()
	defaultContent(w)

	if fixture == nil {
		http.Error(w, "no fixture configured on this server", http.StatusServiceUnavailable)
		return
	}
	status := fixture.Snapshot()
	res := FixtureResponse{
		State:       status.State.String(),
		RemainingMs: status.Remaining.Milliseconds(),
	}
	if err := json.NewEncoder(w).Encode(res); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// PostEventHandler accepts `lights_broken` and `lights_repaired` and posts
// them on the driver's inputs channel; the driver applies them in its own
// loop, so a 202 only means the event was queued.
func PostEventHandler(w http.ResponseWriter, r *http.Request) {
	defer trace(r.RequestURI)()
	defaultContent(w)

	if events == nil {
		http.Error(w, "no fixture configured on this server", http.StatusServiceUnavailable)
		return
	}
	var request EventRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	event, ok := api.ParseEvent(request.Event)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown event [%s]", request.Event), http.StatusBadRequest)
		return
	}
	if event == api.Timeout {
		http.Error(w, "timeout events are generated by the countdown and cannot be injected",
			http.StatusBadRequest)
		return
	}
	events <- event
	logger.Debug("queued event [%s] from %s", event, r.RemoteAddr)
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(MessageResponse{Msg: fmt.Sprintf("event [%s] queued", event)})
}

func GetTransitionsHandler(w http.ResponseWriter, r *http.Request) {
	defer trace(r.RequestURI)()
	defaultContent(w)

	if fixture == nil {
		http.Error(w, "no fixture configured on this server", http.StatusServiceUnavailable)
		return
	}
	if err := json.NewEncoder(w).Encode(fixture.Transitions()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
