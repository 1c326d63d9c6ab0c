package sweeper

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName           = "devicewatch.sweeper"
	metricProbesTotal   = "devicewatch_probes_total"
	metricProbeLatency  = "devicewatch_probe_latency_ms"
	metricSweepDuration = "devicewatch_sweep_duration_seconds"

	outcomeOnline  = "online"
	outcomeOffline = "offline"
)

var (
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	probeCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	latencyHistogram metric.Float64Histogram
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	sweepHistogram metric.Float64Histogram
)

func initMeter() {
	meter := otel.Meter(meterName)

	counter, err := meter.Int64Counter(
		metricProbesTotal,
		metric.WithDescription("Total device probes by outcome"),
	)
	if err != nil {
		otel.Handle(err)
	}
	probeCounter = counter

	latency, err := meter.Float64Histogram(
		metricProbeLatency,
		metric.WithDescription("Round-trip time of successful device probes"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		otel.Handle(err)
	}
	latencyHistogram = latency

	sweep, err := meter.Float64Histogram(
		metricSweepDuration,
		metric.WithDescription("Wall time of a full device sweep"),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
	}
	sweepHistogram = sweep
}

func recordProbe(ctx context.Context, alive bool, rtt time.Duration) {
	meterOnce.Do(initMeter)

	outcome := outcomeOffline
	if alive {
		outcome = outcomeOnline
	}

	if probeCounter != nil {
		probeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}

	if alive && rtt > 0 && latencyHistogram != nil {
		latencyHistogram.Record(ctx, float64(rtt)/float64(time.Millisecond))
	}
}

func recordSweep(ctx context.Context, devices int, duration time.Duration) {
	meterOnce.Do(initMeter)
	if sweepHistogram == nil {
		return
	}

	sweepHistogram.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.Int("devices", devices)))
}
