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

package sweeper

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/devicewatch/pkg/logger"
	"github.com/carverauto/devicewatch/pkg/models"
	"github.com/carverauto/devicewatch/pkg/registry"
	"github.com/carverauto/devicewatch/pkg/scan"
)

const (
	DefaultInterval    = 30 * time.Second
	DefaultConcurrency = 8
)

var errSweeperStopped = errors.New("sweeper stopped")

// DeviceSweeper probes registered devices and records their status.
type DeviceSweeper struct {
	registry registry.Manager
	prober   scan.Prober
	store    *StatusStore
	clock    Clock
	logger   logger.Logger

	interval    time.Duration
	concurrency int

	// lifetime scope for background probes started by Trigger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
}

var _ Sweeper = (*DeviceSweeper)(nil)

// Option configures a DeviceSweeper.
type Option func(*DeviceSweeper)

// WithInterval sets the periodic sweep interval.
func WithInterval(d time.Duration) Option {
	return func(s *DeviceSweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithConcurrency bounds the number of probes in flight during a sweep.
func WithConcurrency(n int) Option {
	return func(s *DeviceSweeper) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithClock(c Clock) Option {
	return func(s *DeviceSweeper) {
		s.clock = c
	}
}

// NewDeviceSweeper creates a sweeper for the devices in reg.
func NewDeviceSweeper(reg registry.Manager, prober scan.Prober, log logger.Logger, opts ...Option) *DeviceSweeper {
	ctx, cancel := context.WithCancel(context.Background())

	s := &DeviceSweeper{
		registry:    reg,
		prober:      prober,
		store:       NewStatusStore(reg.Exists),
		clock:       realClock{},
		logger:      log,
		interval:    DefaultInterval,
		concurrency: DefaultConcurrency,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *DeviceSweeper) Start(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.interval).
		Int("concurrency", s.concurrency).
		Msg("Starting device sweeper")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	s.sweep(ctx)

	ticker := s.clock.Ticker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			select {
			case <-s.done:
				s.logger.Info().Msg("Received done signal, stopping sweeper")
				return nil
			default:
			}

			s.logger.Info().Msg("Context canceled, stopping sweeper")

			return ctx.Err()
		case <-s.done:
			s.logger.Info().Msg("Received done signal, stopping sweeper")

			return nil
		case <-ticker.Chan():
			s.sweep(ctx)
		}
	}
}

// Stop ends the periodic loop and waits for background probes to finish.
func (s *DeviceSweeper) Stop() error {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.done)
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()

	return nil
}

func (s *DeviceSweeper) sweep(ctx context.Context) {
	if err := s.CheckAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error().Err(err).Msg("Sweep failed")
	}
}

func (s *DeviceSweeper) CheckOne(ctx context.Context, id string) (models.DeviceStatus, error) {
	device, err := s.registry.Get(id)
	if err != nil {
		return models.DeviceStatus{}, err
	}

	return s.check(ctx, device)
}

func (s *DeviceSweeper) check(ctx context.Context, device models.Device) (models.DeviceStatus, error) {
	ctx, span := startSpan(ctx, spanProbe,
		attribute.String(attrDeviceID, device.ID),
		attribute.String(attrAddress, device.Address))
	defer span.End()

	result := s.prober.Probe(ctx, device.Address)

	// a probe cut short by shutdown says nothing about the device
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		return models.DeviceStatus{}, err
	}

	span.SetAttributes(attribute.Bool(attrReachable, result.Alive))

	if result.CheckedAt.IsZero() {
		result.CheckedAt = s.clock.Now()
	}

	if !result.Alive {
		result.RTT = 0
	}

	recordProbe(ctx, result.Alive, result.RTT)

	status, ok := s.store.Apply(device.ID, result)
	if !ok {
		span.RecordError(models.ErrDeviceNotFound)
		s.logger.Debug().Str("device_id", device.ID).Msg("Discarding probe result for removed device")

		return models.DeviceStatus{}, models.ErrDeviceNotFound
	}

	outcome := "OFFLINE"
	if status.Reachable {
		outcome = "ONLINE"
	}

	s.logger.Debug().
		Str("device_id", device.ID).
		Str("name", device.Name).
		Str("address", device.Address).
		Dur("rtt", result.RTT).
		Msgf("Device %s (%s) is %s", device.Name, device.Address, outcome)

	return status, nil
}

// CheckAll probes a snapshot of the registry with bounded concurrency. A
// device failing or disappearing mid-sweep does not affect the others.
func (s *DeviceSweeper) CheckAll(ctx context.Context) error {
	devices := s.registry.List()
	start := s.clock.Now()

	ctx, span := startSpan(ctx, spanCheckAll, attribute.Int(attrDevices, len(devices)))
	defer span.End()

	var g errgroup.Group

	g.SetLimit(s.concurrency)

	for _, device := range devices {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			if _, err := s.check(ctx, device); err != nil && !ignorable(err) {
				s.logger.Warn().Err(err).Str("device_id", device.ID).Msg("Device check failed")
			}

			return nil
		})
	}

	_ = g.Wait()

	elapsed := s.clock.Now().Sub(start)
	recordSweep(ctx, len(devices), elapsed)

	s.logger.Debug().
		Int("devices", len(devices)).
		Dur("duration", elapsed).
		Msg("Sweep completed")

	return ctx.Err()
}

// Trigger probes id in the background. It is a no-op once the sweeper has
// been stopped.
func (s *DeviceSweeper) Trigger(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		s.logger.Debug().Err(errSweeperStopped).Str("device_id", id).Msg("Ignoring trigger")
		return
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		if _, err := s.CheckOne(s.ctx, id); err != nil && !ignorable(err) {
			s.logger.Warn().Err(err).Str("device_id", id).Msg("Triggered check failed")
		}
	}()
}

// ignorable reports errors expected during normal operation: the device was
// removed, or the sweeper is shutting down.
func ignorable(err error) bool {
	return errors.Is(err, models.ErrDeviceNotFound) || errors.Is(err, context.Canceled)
}

func (s *DeviceSweeper) Status(device models.Device) models.DeviceStatus {
	if st, ok := s.store.Get(device.ID); ok {
		return st
	}

	return models.NewUnprobedStatus(device.DateAdded)
}

func (s *DeviceSweeper) Forget(id string) {
	s.store.Delete(id)
}

func (s *DeviceSweeper) Prime(devices []models.Device, at time.Time) {
	for _, d := range devices {
		s.store.Prime(d.ID, at)
	}
}

func (s *DeviceSweeper) Subscribe() (<-chan models.StatusEvent, func()) {
	return s.store.Subscribe()
}
