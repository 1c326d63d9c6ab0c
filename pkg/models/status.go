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

import (
	"encoding/json"
	"time"
)

// DeviceStatus is the latest known reachability state of a device.
//
// A single Reachable flag backs both the "online" and "pingStatus" keys of the
// JSON form; they can never disagree.
type DeviceStatus struct {
	Reachable     bool
	LastSeenAt    *time.Time
	LatencyMs     *float64
	LastCheckedAt time.Time
}

// NewUnprobedStatus returns the status of a device that has not been probed yet.
func NewUnprobedStatus(initializedAt time.Time) DeviceStatus {
	return DeviceStatus{LastCheckedAt: initializedAt}
}

// ProbeSucceeded reports whether the last probe got a reply.
func (s DeviceStatus) ProbeSucceeded() bool {
	return s.Reachable
}

// Apply folds a probe result into the status. LastSeenAt only moves forward
// and only on success; LastCheckedAt always advances to the result time.
func (s DeviceStatus) Apply(result ProbeResult) DeviceStatus {
	next := DeviceStatus{
		Reachable:     result.Alive,
		LastSeenAt:    s.LastSeenAt,
		LastCheckedAt: result.CheckedAt,
	}

	if result.Alive {
		seen := result.CheckedAt
		if s.LastSeenAt == nil || !seen.Before(*s.LastSeenAt) {
			next.LastSeenAt = &seen
		}

		if result.RTT > 0 {
			ms := float64(result.RTT) / float64(time.Millisecond)
			next.LatencyMs = &ms
		}
	}

	return next
}

type statusJSON struct {
	Online      bool       `json:"online"`
	LastSeen    *time.Time `json:"lastSeen"`
	PingMs      *float64   `json:"pingMs"`
	LastChecked time.Time  `json:"lastChecked"`
	PingStatus  bool       `json:"pingStatus"`
}

// MarshalJSON emits the wire form expected by the browser UI.
func (s DeviceStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(statusJSON{
		Online:      s.Reachable,
		LastSeen:    s.LastSeenAt,
		PingMs:      s.LatencyMs,
		LastChecked: s.LastCheckedAt,
		PingStatus:  s.ProbeSucceeded(),
	})
}

// UnmarshalJSON accepts the wire form. "online" wins when the two flags disagree.
func (s *DeviceStatus) UnmarshalJSON(b []byte) error {
	var raw statusJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*s = DeviceStatus{
		Reachable:     raw.Online,
		LastSeenAt:    raw.LastSeen,
		LatencyMs:     raw.PingMs,
		LastCheckedAt: raw.LastChecked,
	}

	return nil
}

// ProbeResult is the outcome of a single reachability check.
// RTT is zero when the target did not answer.
type ProbeResult struct {
	Address   string
	Alive     bool
	RTT       time.Duration
	CheckedAt time.Time
}

// StatusEvent is published whenever a device status changes.
type StatusEvent struct {
	DeviceID string       `json:"device_id"`
	Status   DeviceStatus `json:"status"`
	Removed  bool         `json:"removed,omitempty"`
}
