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

//go:generate mockgen -destination=mock_sweeper.go -package=sweeper github.com/carverauto/devicewatch/pkg/sweeper Sweeper,Clock,Ticker

package sweeper

import (
	"context"
	"time"

	"github.com/carverauto/devicewatch/pkg/models"
)

// Sweeper keeps device statuses current by probing registered devices
// periodically and on demand.
type Sweeper interface {
	// Start runs an immediate sweep and then one per interval until ctx is
	// canceled or Stop is called.
	Start(ctx context.Context) error
	Stop() error

	// CheckOne probes a single device and applies the result.
	CheckOne(ctx context.Context, id string) (models.DeviceStatus, error)
	// CheckAll probes every device registered at the time of the call.
	CheckAll(ctx context.Context) error
	// Trigger schedules CheckOne in the background and returns immediately.
	Trigger(id string)

	// Status returns the current status of device, or its unprobed default.
	Status(device models.Device) models.DeviceStatus
	// Forget discards the status of a removed device.
	Forget(id string)
	// Prime initializes unprobed statuses for devices restored at startup.
	Prime(devices []models.Device, at time.Time)

	Subscribe() (<-chan models.StatusEvent, func())
}

// Clock abstracts time-related operations.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
}

// Ticker abstracts the ticker behavior.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}
