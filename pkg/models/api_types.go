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

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// SuccessResponse acknowledges a command that returns no payload.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// CheckResponse is returned by an on-demand device check.
type CheckResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Device  Device       `json:"device"`
	Status  DeviceStatus `json:"status"`
}

// HealthState summarizes whether the monitor is fully durable.
type HealthState struct {
	Degraded         bool   `json:"degraded"`
	DeviceCount      int    `json:"devices"`
	PersistenceError string `json:"persistence_error,omitempty"`
}

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	HealthState
}
