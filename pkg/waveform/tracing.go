package waveform

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const coreTracerName = "waveline.core"

const (
	spanUpdate        = "waveform.update"
	spanChannelSample = "waveform.channel.sample"
	spanAnnotate      = "waveform.annotate"
)

func coreTracer() trace.Tracer {
	return otel.Tracer(coreTracerName)
}
