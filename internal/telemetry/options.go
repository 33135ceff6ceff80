package telemetry

// Options configures the exporters used for traces and metrics. Empty exporter
// names disable the corresponding collection.
type Options struct {
	// TraceExporter is one of "none", "console", "otlpHttp", "otlpGrpc" or "http".
	TraceExporter string

	// TraceExporterHTTPEndpoint is the endpoint for the "http" trace exporter.
	TraceExporterHTTPEndpoint string

	// TraceParent carries a W3C traceparent value from a calling process so
	// spans attach to an existing trace.
	TraceParent string

	// MetricExporter is one of "none", "console", "otlpHttp" or "otlpGrpc".
	MetricExporter string

	TraceExporterInsecureEndpoint  bool
	MetricExporterInsecureEndpoint bool
}
