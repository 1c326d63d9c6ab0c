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

package kv

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runJetStreamServer(t *testing.T) *server.Server {
	t.Helper()

	srv, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
	})
	require.NoError(t, err)

	go srv.Start()

	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		t.Fatalf("embedded NATS server not ready for connections")
	}

	t.Cleanup(srv.Shutdown)

	return srv
}

func TestNatsStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	srv := runJetStreamServer(t)

	store, err := NewNatsStore(ctx, srv.ClientURL(), "devicewatch-test")
	require.NoError(t, err)

	defer func() { _ = store.Close() }()

	_, found, err := store.Get(ctx, "devices")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put(ctx, "devices", []byte(`[]`)))

	value, found, err := store.Get(ctx, "devices")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`[]`), value)

	require.NoError(t, store.Delete(ctx, "devices"))
	require.NoError(t, store.Delete(ctx, "never-written"))

	_, found, err = store.Get(ctx, "devices")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewNatsStoreValidation(t *testing.T) {
	_, err := NewNatsStore(context.Background(), "", "bucket")
	require.ErrorIs(t, err, errNatsURLRequired)

	_, err = NewNatsStore(context.Background(), "nats://127.0.0.1:4222", "")
	require.ErrorIs(t, err, errBucketRequired)
}
