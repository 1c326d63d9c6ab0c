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

package core

import (
	"context"

	"github.com/carverauto/devicewatch/pkg/logger"
	"github.com/carverauto/devicewatch/pkg/models"
	"github.com/carverauto/devicewatch/pkg/registry"
	"github.com/carverauto/devicewatch/pkg/sweeper"
)

// DeviceService combines the registry and the sweeper. It holds no state of
// its own.
type DeviceService struct {
	registry registry.Manager
	sweeper  sweeper.Sweeper
	logger   logger.Logger
}

var _ Service = (*DeviceService)(nil)

func NewDeviceService(reg registry.Manager, sw sweeper.Sweeper, log logger.Logger) *DeviceService {
	return &DeviceService{
		registry: reg,
		sweeper:  sw,
		logger:   log,
	}
}

func (s *DeviceService) ListWithStatus(_ context.Context) []models.DeviceWithStatus {
	devices := s.registry.List()
	out := make([]models.DeviceWithStatus, 0, len(devices))

	for _, d := range devices {
		out = append(out, models.DeviceWithStatus{
			Device: d,
			Status: s.sweeper.Status(d),
		})
	}

	return out
}

func (s *DeviceService) GetOneWithStatus(_ context.Context, id string) (models.DeviceDetail, error) {
	device, err := s.registry.Get(id)
	if err != nil {
		return models.DeviceDetail{}, err
	}

	return models.DeviceDetail{Device: device, Status: s.sweeper.Status(device)}, nil
}

func (s *DeviceService) AddDevice(ctx context.Context, name, address string) (models.Device, error) {
	device, err := s.registry.Add(ctx, name, address)
	if err != nil {
		return models.Device{}, err
	}

	s.logger.Info().
		Str("device_id", device.ID).
		Str("name", device.Name).
		Str("address", device.Address).
		Msg("Device added")

	s.sweeper.Trigger(device.ID)

	return device, nil
}

func (s *DeviceService) RemoveDevice(ctx context.Context, id string) error {
	if err := s.registry.Remove(ctx, id); err != nil {
		return err
	}

	s.sweeper.Forget(id)

	s.logger.Info().Str("device_id", id).Msg("Device removed")

	return nil
}

func (s *DeviceService) CheckOneNow(ctx context.Context, id string) (models.DeviceDetail, error) {
	device, err := s.registry.Get(id)
	if err != nil {
		return models.DeviceDetail{}, err
	}

	status, err := s.sweeper.CheckOne(ctx, id)
	if err != nil {
		return models.DeviceDetail{}, err
	}

	return models.DeviceDetail{Device: device, Status: status}, nil
}

func (s *DeviceService) CheckAllNow(ctx context.Context) error {
	return s.sweeper.CheckAll(ctx)
}

func (s *DeviceService) Health(_ context.Context) models.HealthState {
	return s.registry.Health()
}

func (s *DeviceService) Subscribe() (<-chan models.StatusEvent, func()) {
	return s.sweeper.Subscribe()
}
