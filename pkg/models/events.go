/*
 * Copyright 2025 Carver Automation Corporation.
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

package models

import "time"

const (
	DeviceStateOnline  = "online"
	DeviceStateOffline = "offline"
	DeviceStateUnknown = "unknown"
	DeviceStateRemoved = "removed"
)

// CloudEvent is a CloudEvents 1.0 envelope in its JSON structured mode.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// DeviceStateEventData is the payload of a device state transition event.
type DeviceStateEventData struct {
	DeviceID      string     `json:"device_id"`
	PreviousState string     `json:"previous_state"`
	CurrentState  string     `json:"current_state"`
	Timestamp     time.Time  `json:"timestamp"`
	LastSeen      *time.Time `json:"last_seen,omitempty"`
	LatencyMs     *float64   `json:"latency_ms,omitempty"`
	Severity      string     `json:"severity"`
}

// StateOf maps a reachability flag to its event state name.
func StateOf(reachable bool) string {
	if reachable {
		return DeviceStateOnline
	}

	return DeviceStateOffline
}
