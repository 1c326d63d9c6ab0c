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

package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	config := &Config{
		Level:  "debug",
		Debug:  true,
		Output: "stdout",
	}

	err := Init(config)
	require.NoError(t, err)

	logger := GetLogger()
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}

func TestInitInvalidLevel(t *testing.T) {
	err := Init(&Config{Level: "loud"})
	require.Error(t, err)
}

func TestSetDebug(t *testing.T) {
	SetDebug(true)

	logger := GetLogger()
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	SetDebug(false)

	logger = GetLogger()
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   zerolog.Level
	}{
		{"default", Config{}, zerolog.InfoLevel},
		{"explicit", Config{Level: "warn"}, zerolog.WarnLevel},
		{"debug wins", Config{Level: "error", Debug: true}, zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(&tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithComponent(t *testing.T) {
	componentLogger := WithComponent("test-component")

	assert.NotEqual(t, zerolog.Disabled, componentLogger.GetLevel(), "component logger should not be disabled")
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("OTEL_METRICS_ENABLED", "yes")

	config := DefaultConfig()

	assert.Equal(t, "warn", config.Level)
	assert.Equal(t, "stdout", config.Output)
	require.NotNil(t, config.OTel)
	assert.True(t, config.OTel.Enabled)
	assert.Equal(t, defaultServiceName, config.OTel.ServiceName)
}

func TestInitializeMetricsDisabled(t *testing.T) {
	provider, err := InitializeMetrics(context.Background(), &OTelConfig{Enabled: true})

	assert.Nil(t, provider)
	assert.True(t, errors.Is(err, ErrOTelMetricsDisabled))
	assert.NoError(t, ShutdownMetrics(context.Background()))
}
