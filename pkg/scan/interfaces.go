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

//go:generate mockgen -destination=mock_scan.go -package=scan github.com/carverauto/devicewatch/pkg/scan Prober

package scan

import (
	"context"

	"github.com/carverauto/devicewatch/pkg/models"
)

// Prober performs a single liveness probe against a device address.
// Implementations never return an error: any failure is reported as a
// result with Alive set to false.
type Prober interface {
	Probe(ctx context.Context, address string) models.ProbeResult
}
