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
	"fmt"
	"strings"
	"time"

	"github.com/carverauto/devicewatch/pkg/logger"
)

const (
	StorageFile = "file"
	StorageNATS = "nats"
)

// Duration is a time.Duration that unmarshals from either "30s" or nanoseconds.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

// MarshalJSON writes the duration in its string form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// CORSConfig controls the cross-origin headers set by the HTTP middleware.
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins,omitempty"`
	AllowCredentials bool     `json:"allow_credentials,omitempty"`
}

// TLSConfig holds client certificate paths for mTLS connections to NATS.
type TLSConfig struct {
	CertFile   string `json:"cert_file"`
	KeyFile    string `json:"key_file"`
	CAFile     string `json:"ca_file"`
	ServerName string `json:"server_name,omitempty"`
}

// StorageConfig selects where the device registry document is kept.
type StorageConfig struct {
	Type    string     `json:"type"`
	Path    string     `json:"path,omitempty"`
	NatsURL string     `json:"nats_url,omitempty"`
	Bucket  string     `json:"bucket,omitempty"`
	Key     string     `json:"key,omitempty"`
	TLS     *TLSConfig `json:"tls,omitempty"`
}

// EventsConfig enables publishing of device state transitions to a JetStream stream.
// NatsURL and TLS fall back to the storage settings when empty.
type EventsConfig struct {
	Enabled bool       `json:"enabled"`
	NatsURL string     `json:"nats_url,omitempty"`
	Stream  string     `json:"stream,omitempty"`
	Subject string     `json:"subject,omitempty"`
	TLS     *TLSConfig `json:"tls,omitempty"`
}

type ICMPConfig struct {
	Privileged bool `json:"privileged"`
}

// MetricsConfig configures OTLP export of probe and sweep metrics.
type MetricsConfig struct {
	Enabled        bool              `json:"enabled"`
	Endpoint       string            `json:"endpoint,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	Insecure       bool              `json:"insecure"`
	ExportInterval Duration          `json:"export_interval,omitempty"`
}

// ServiceConfig is the devicewatch service configuration.
type ServiceConfig struct {
	ListenAddr       string         `json:"listen_addr"`
	SweepInterval    Duration       `json:"sweep_interval"`
	ProbeTimeout     Duration       `json:"probe_timeout"`
	SweepConcurrency int            `json:"sweep_concurrency"`
	ICMP             ICMPConfig     `json:"icmp"`
	Storage          StorageConfig  `json:"storage"`
	CORS             CORSConfig     `json:"cors"`
	Logging          *logger.Config `json:"logging,omitempty"`
	Metrics          MetricsConfig  `json:"metrics"`
	Events           EventsConfig   `json:"events"`
}

// Validate implements config.Validator.
func (c *ServiceConfig) Validate() error {
	if c.ListenAddr == "" {
		return errListenAddrRequired
	}

	if c.SweepInterval < 0 {
		return fmt.Errorf("%w: sweep_interval", errNegativeDuration)
	}

	if c.ProbeTimeout < 0 {
		return fmt.Errorf("%w: probe_timeout", errNegativeDuration)
	}

	if c.SweepConcurrency < 0 {
		return errInvalidConcurrency
	}

	switch strings.ToLower(c.Storage.Type) {
	case "", StorageFile:
	case StorageNATS:
		if c.Storage.NatsURL == "" {
			return errNatsURLRequired
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownStorageType, c.Storage.Type)
	}

	if c.Metrics.Enabled && c.Metrics.Endpoint == "" {
		return errMetricsEndpointRequired
	}

	if c.Events.Enabled && c.Events.NatsURL == "" && c.Storage.NatsURL == "" {
		return errEventsNatsURLRequired
	}

	if err := c.Storage.TLS.validate(); err != nil {
		return fmt.Errorf("storage.tls: %w", err)
	}

	if err := c.Events.TLS.validate(); err != nil {
		return fmt.Errorf("events.tls: %w", err)
	}

	return nil
}

func (t *TLSConfig) validate() error {
	if t == nil {
		return nil
	}

	if t.CertFile == "" || t.KeyFile == "" || t.CAFile == "" {
		return errIncompleteTLS
	}

	return nil
}
