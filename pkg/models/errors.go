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

import "errors"

var (
	// ErrDeviceNotFound is returned when an operation references an unknown device id.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrDuplicateAddress is returned when a device with the same address is already registered.
	ErrDuplicateAddress = errors.New("a device with this address already exists")
	// ErrInvalidDevice is returned when a device is missing its name or address.
	ErrInvalidDevice = errors.New("device name and address are required")

	errInvalidDuration         = errors.New("invalid duration")
	errListenAddrRequired      = errors.New("listen_addr is required")
	errNegativeDuration        = errors.New("duration must not be negative")
	errInvalidConcurrency      = errors.New("sweep_concurrency must not be negative")
	errUnknownStorageType      = errors.New("unknown storage type")
	errNatsURLRequired         = errors.New("storage.nats_url is required for nats storage")
	errMetricsEndpointRequired = errors.New("metrics.endpoint is required when metrics are enabled")
	errEventsNatsURLRequired   = errors.New("events.nats_url or storage.nats_url is required when events are enabled")
	errIncompleteTLS           = errors.New("cert_file, key_file and ca_file are all required")
)
