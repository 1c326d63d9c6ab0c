//go:build !ci

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

package scan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/net/icmp"

	"github.com/carverauto/devicewatch/pkg/logger"
)

func TestProbeLoopback(t *testing.T) {
	conn, err := icmp.ListenPacket("udp4", "0.0.0.0")
	if err != nil {
		t.Skipf("unprivileged ICMP sockets unavailable: %v", err)
	}

	_ = conn.Close()

	p := NewICMPProber(time.Second, logger.NewTestLogger())

	res := p.Probe(context.Background(), "127.0.0.1")

	assert.True(t, res.Alive)
	assert.Positive(t, res.RTT)
}

func TestProbeUnreachable(t *testing.T) {
	p := NewICMPProber(300*time.Millisecond, logger.NewTestLogger())

	start := time.Now()
	res := p.Probe(context.Background(), "192.0.2.254") // TEST-NET-1, never routed

	assert.False(t, res.Alive)
	assert.Less(t, time.Since(start), 2*time.Second)
}
