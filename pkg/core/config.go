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
	"strings"
	"time"

	"github.com/carverauto/devicewatch/pkg/logger"
	"github.com/carverauto/devicewatch/pkg/models"
	"github.com/carverauto/devicewatch/pkg/scan"
	"github.com/carverauto/devicewatch/pkg/sweeper"
	"github.com/carverauto/devicewatch/pkg/version"
)

const (
	DefaultListenAddr     = ":3000"
	DefaultStoragePath    = "devices.json"
	DefaultBucket         = "devicewatch"
	DefaultKey            = "devices"
	DefaultEventsStream   = "DEVICEWATCH_EVENTS"
	DefaultEventsSubject  = "events.devicewatch.device"
	defaultExportInterval = 15 * time.Second
)

// NormalizeConfig returns a copy of config with defaults applied.
func NormalizeConfig(config *models.ServiceConfig) *models.ServiceConfig {
	normalized := *config

	if normalized.ListenAddr == "" {
		normalized.ListenAddr = DefaultListenAddr
	}

	if normalized.SweepInterval == 0 {
		normalized.SweepInterval = models.Duration(sweeper.DefaultInterval)
	}

	if normalized.ProbeTimeout == 0 {
		normalized.ProbeTimeout = models.Duration(scan.DefaultProbeTimeout)
	}

	if normalized.SweepConcurrency == 0 {
		normalized.SweepConcurrency = sweeper.DefaultConcurrency
	}

	normalized.Storage.Type = strings.ToLower(normalized.Storage.Type)
	if normalized.Storage.Type == "" {
		normalized.Storage.Type = models.StorageFile
	}

	if normalized.Storage.Path == "" {
		normalized.Storage.Path = DefaultStoragePath
	}

	if normalized.Storage.Bucket == "" {
		normalized.Storage.Bucket = DefaultBucket
	}

	if normalized.Storage.Key == "" {
		normalized.Storage.Key = DefaultKey
	}

	if normalized.Events.Enabled {
		if normalized.Events.NatsURL == "" {
			normalized.Events.NatsURL = normalized.Storage.NatsURL
		}

		if normalized.Events.TLS == nil {
			normalized.Events.TLS = normalized.Storage.TLS
		}
	}

	if normalized.Events.Stream == "" {
		normalized.Events.Stream = DefaultEventsStream
	}

	if normalized.Events.Subject == "" {
		normalized.Events.Subject = DefaultEventsSubject
	}

	if normalized.Logging == nil {
		normalized.Logging = logger.DefaultConfig()
	}

	if normalized.Metrics.Enabled {
		if normalized.Metrics.ExportInterval == 0 {
			normalized.Metrics.ExportInterval = models.Duration(defaultExportInterval)
		}

		logging := *normalized.Logging
		logging.OTel = &logger.OTelConfig{
			Enabled:        true,
			Endpoint:       normalized.Metrics.Endpoint,
			Headers:        normalized.Metrics.Headers,
			ServiceName:    "devicewatch",
			ServiceVersion: version.GetVersion(),
			ExportInterval: time.Duration(normalized.Metrics.ExportInterval),
			Insecure:       normalized.Metrics.Insecure,
		}
		normalized.Logging = &logging
	}

	return &normalized
}

// DefaultServiceConfig is the configuration used when no file is present.
func DefaultServiceConfig() *models.ServiceConfig {
	return NormalizeConfig(&models.ServiceConfig{})
}
