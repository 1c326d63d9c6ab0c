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

package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/carverauto/devicewatch/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComponentLogger(t *testing.T) {
	log, err := CreateComponentLogger(context.Background(), "sweeper", &logger.Config{Level: "warn", Output: "stderr"})
	require.NoError(t, err)
	require.NotNil(t, log)

	impl, ok := log.(*LoggerImpl)
	require.True(t, ok)
	assert.Equal(t, zerolog.WarnLevel, impl.logger.GetLevel())

	log.SetDebug(true)
	assert.Equal(t, zerolog.DebugLevel, impl.logger.GetLevel())

	require.NoError(t, ShutdownLogger(context.Background()))
}

func TestCreateComponentLoggerInvalidLevel(t *testing.T) {
	_, err := CreateComponentLogger(context.Background(), "api", &logger.Config{Level: "chatty"})
	require.Error(t, err)
}

func TestCreateComponentLoggerWithOTel(t *testing.T) {
	cfg := &logger.Config{
		Level:  "info",
		Output: "stderr",
		OTel: &logger.OTelConfig{
			Enabled:  true,
			Endpoint: "127.0.0.1:4317",
			Insecure: true,
		},
	}

	log, err := CreateComponentLogger(context.Background(), "devicewatch", cfg)
	require.NoError(t, err)

	log.Info().Msg("exported")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// nothing listens on the endpoint, so the final flush may fail
	_ = ShutdownLogger(ctx)

	require.NoError(t, ShutdownLogger(context.Background()), "pipelines are released after shutdown")
}

func TestCreateComponentLoggerOTelMissingEndpoint(t *testing.T) {
	_, err := CreateComponentLogger(context.Background(), "devicewatch", &logger.Config{
		OTel: &logger.OTelConfig{Enabled: true},
	})
	require.ErrorIs(t, err, logger.ErrOTelEndpointRequired)
}
