package sweeper

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/devicewatch/pkg/logger"
)

const (
	tracerName    = "devicewatch.sweeper"
	spanCheckAll  = "sweeper.check_all"
	spanProbe     = "sweeper.probe"
	attrDevices   = "devicewatch.devices"
	attrDeviceID  = "devicewatch.device.id"
	attrAddress   = "devicewatch.device.address"
	attrReachable = "devicewatch.device.reachable"
)

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return logger.GetTracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}
