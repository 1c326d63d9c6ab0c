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
	"time"
)

// Device is a registered network endpoint whose reachability is monitored.
// The JSON form is also the persisted document entry.
type Device struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"ip"`
	DateAdded time.Time `json:"dateAdded"`
}

// DeviceWithStatus is a device merged with its current status, as listed by the API.
type DeviceWithStatus struct {
	Device
	Status DeviceStatus `json:"status"`
}

// DeviceDetail is the single-device view: the device and its status side by side.
type DeviceDetail struct {
	Device Device       `json:"device"`
	Status DeviceStatus `json:"status"`
}

// NewDeviceRequest carries the fields accepted when registering a device.
type NewDeviceRequest struct {
	Name    string `json:"name"`
	Address string `json:"ip"`
}
