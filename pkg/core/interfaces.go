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

//go:generate mockgen -destination=mock_core.go -package=core github.com/carverauto/devicewatch/pkg/core Service

package core

import (
	"context"

	"github.com/carverauto/devicewatch/pkg/models"
)

// Service is the query and command surface used by the transport layer.
type Service interface {
	ListWithStatus(ctx context.Context) []models.DeviceWithStatus
	GetOneWithStatus(ctx context.Context, id string) (models.DeviceDetail, error)

	// AddDevice registers a device and schedules an immediate background probe.
	AddDevice(ctx context.Context, name, address string) (models.Device, error)
	RemoveDevice(ctx context.Context, id string) error

	CheckOneNow(ctx context.Context, id string) (models.DeviceDetail, error)
	CheckAllNow(ctx context.Context) error

	Health(ctx context.Context) models.HealthState
	Subscribe() (<-chan models.StatusEvent, func())
}
