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
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

type recordingExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}

	return nil
}

func (*recordingExporter) Shutdown(context.Context) error   { return nil }
func (*recordingExporter) ForceFlush(context.Context) error { return nil }

func (e *recordingExporter) all() []sdklog.Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]sdklog.Record(nil), e.records...)
}

func recordAttrs(r sdklog.Record) map[string]string {
	attrs := make(map[string]string)

	r.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})

	return attrs
}

func newRecordingWriter(t *testing.T) (*OTelWriter, *recordingExporter) {
	t.Helper()

	exporter := &recordingExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))

	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	return newOTelWriter(context.Background(), provider), exporter
}

func TestOTelWriterEmitsZerologLines(t *testing.T) {
	writer, exporter := newRecordingWriter(t)

	var stdout bytes.Buffer

	zlog, err := NewWithWriter(&Config{Level: "debug"}, NewMultiWriter(&stdout, writer))
	require.NoError(t, err)

	zlog = zlog.With().Str("component", "sweeper").Logger()
	zlog.Warn().Str("device_id", "dev-1").Int("attempt", 2).Msg("Device check failed")

	assert.Contains(t, stdout.String(), `"message":"Device check failed"`)

	records := exporter.all()
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "Device check failed", r.Body().AsString())
	assert.Equal(t, otellog.SeverityWarn, r.Severity())
	assert.Equal(t, "warn", r.SeverityText())
	assert.False(t, r.Timestamp().IsZero())
	assert.Equal(t, "sweeper", r.InstrumentationScope().Name)

	attrs := recordAttrs(r)
	assert.Equal(t, "dev-1", attrs["device_id"])
	assert.Equal(t, "2", attrs["attempt"])
	assert.NotContains(t, attrs, "message")
	assert.NotContains(t, attrs, "level")
	assert.NotContains(t, attrs, "component")
}

func TestOTelWriterTruncatesLongValues(t *testing.T) {
	writer, exporter := newRecordingWriter(t)

	zlog, err := NewWithWriter(&Config{}, writer)
	require.NoError(t, err)

	zlog.Info().Str("payload", strings.Repeat("x", maxAttributeValueLength+100)).Msg("big")

	records := exporter.all()
	require.Len(t, records, 1)

	attrs := recordAttrs(records[0])
	assert.Len(t, attrs["payload"], maxAttributeValueLength)
	assert.True(t, strings.HasSuffix(attrs["payload"], "..."))
	assert.Equal(t, "payload", attrs[truncatedKeysAttribute])
	assert.Equal(t, defaultLogScope, records[0].InstrumentationScope().Name)
}

func TestOTelWriterIgnoresNonJSON(t *testing.T) {
	writer, exporter := newRecordingWriter(t)

	n, err := writer.Write([]byte("plain text\n"))
	require.NoError(t, err)
	assert.Equal(t, len("plain text\n"), n)
	assert.Empty(t, exporter.all())
}

func TestNewOTELWriterValidation(t *testing.T) {
	_, err := NewOTELWriter(context.Background(), nil)
	require.ErrorIs(t, err, ErrOTelLoggingDisabled)

	_, err = NewOTELWriter(context.Background(), &OTelConfig{Enabled: true})
	require.ErrorIs(t, err, ErrOTelEndpointRequired)
}

func TestOutputWithoutOTel(t *testing.T) {
	w, err := Output(context.Background(), &Config{Output: "stderr"})
	require.NoError(t, err)
	assert.NotNil(t, w)

	_, isMulti := w.(*MultiWriter)
	assert.False(t, isMulti)
}

func TestOutputWithOTel(t *testing.T) {
	// the exporter dials lazily, so an unused local port is enough
	w, err := Output(context.Background(), &Config{
		OTel: &OTelConfig{Enabled: true, Endpoint: "127.0.0.1:4317", Insecure: true},
	})
	require.NoError(t, err)

	_, isMulti := w.(*MultiWriter)
	assert.True(t, isMulti)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_ = ShutdownLogs(ctx)
	require.NoError(t, ShutdownLogs(ctx), "second shutdown is a no-op")
}

func TestMapZerologLevelToOTEL(t *testing.T) {
	tests := map[string]otellog.Severity{
		zerolog.TraceLevel.String(): otellog.SeverityTrace,
		zerolog.DebugLevel.String(): otellog.SeverityDebug,
		zerolog.InfoLevel.String():  otellog.SeverityInfo,
		"WARNING":                   otellog.SeverityWarn,
		zerolog.ErrorLevel.String(): otellog.SeverityError,
		zerolog.PanicLevel.String(): otellog.SeverityFatal,
		"unknown":                   otellog.SeverityInfo,
	}

	for level, want := range tests {
		assert.Equal(t, want, mapZerologLevelToOTEL(level), level)
	}
}

func TestTruncateStringKeepsRunes(t *testing.T) {
	got, cut := truncateString("ééééé", 6)
	assert.True(t, cut)
	assert.Equal(t, "é...", got)

	got, cut = truncateString("short", 10)
	assert.False(t, cut)
	assert.Equal(t, "short", got)
}

type failingWriter struct{}

var errWriteFailed = errors.New("write failed")

func (failingWriter) Write([]byte) (int, error) { return 0, errWriteFailed }

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) - 1, nil }

func TestMultiWriter(t *testing.T) {
	var a, b bytes.Buffer

	n, err := NewMultiWriter(&a, &b).Write([]byte("line"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "line", a.String())
	assert.Equal(t, "line", b.String())

	_, err = NewMultiWriter(failingWriter{}, &a).Write([]byte("x"))
	require.ErrorIs(t, err, errWriteFailed)

	_, err = NewMultiWriter(shortWriter{}).Write([]byte("xy"))
	require.ErrorIs(t, err, io.ErrShortWrite)
}

func TestInitializeTracingDisabled(t *testing.T) {
	_, err := InitializeTracing(context.Background(), &OTelConfig{})
	require.ErrorIs(t, err, ErrOTelTracingDisabled)
	require.NoError(t, ShutdownTracing(context.Background()))
}

func TestTransportCredentials(t *testing.T) {
	creds, err := transportCredentials(nil)
	require.NoError(t, err)
	assert.NotNil(t, creds)

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(caFile, []byte("not pem"), 0o600))

	_, err = transportCredentials(&TLSConfig{CAFile: caFile})
	require.ErrorIs(t, err, errFailedToParseCACert)

	_, err = transportCredentials(&TLSConfig{CertFile: "missing.pem", KeyFile: "missing-key.pem"})
	require.Error(t, err)
}
