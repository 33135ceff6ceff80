package telemetry

import (
	"context"
	"io"
	"time"

	"github.com/worklift/worklift/internal/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

const (
	noneMetricExporterType     metricExporterType = "none"
	consoleMetricExporterType  metricExporterType = "console"
	otlpHTTPMetricExporterType metricExporterType = "otlpHttp"
	otlpGrpcMetricExporterType metricExporterType = "otlpGrpc"

	metricReadInterval = time.Second
)

type metricExporterType string

type Meter struct {
	otelmetric.Meter
	provider       *sdkmetric.MeterProvider
	metricExporter sdkmetric.Exporter
}

// NewMeter creates and configures the metrics collection.
func NewMeter(ctx context.Context, appName, appVersion string, writer io.Writer, opts *Options) (*Meter, error) {
	metricExporter, err := NewMetricExporter(ctx, writer, opts)
	if err != nil {
		return nil, errors.New(err)
	}

	if metricExporter == nil { // no exporter
		return nil, nil
	}

	provider, err := newMeterProvider(metricExporter, appName, appVersion)
	if err != nil {
		return nil, errors.New(err)
	}

	otel.SetMeterProvider(provider)

	return &Meter{
		Meter:          provider.Meter(appName),
		provider:       provider,
		metricExporter: metricExporter,
	}, nil
}

// newMeterProvider creates a new meter provider with the application name and version.
func newMeterProvider(exp sdkmetric.Exporter, appName, appVersion string) (*sdkmetric.MeterProvider, error) {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(appName),
			semconv.ServiceVersion(appVersion),
		),
	)
	if err != nil {
		return nil, errors.New(err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(r),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(metricReadInterval))),
	), nil
}

// NewMetricExporter creates a new exporter based on the telemetry options.
func NewMetricExporter(ctx context.Context, writer io.Writer, opts *Options) (sdkmetric.Exporter, error) {
	exporterType := metricExporterType(opts.MetricExporter)
	if exporterType == "" {
		exporterType = noneMetricExporterType
	}

	switch exporterType { //nolint:exhaustive
	case otlpHTTPMetricExporterType:
		var config []otlpmetrichttp.Option
		if opts.MetricExporterInsecureEndpoint {
			config = append(config, otlpmetrichttp.WithInsecure())
		}

		return otlpmetrichttp.New(ctx, config...)
	case otlpGrpcMetricExporterType:
		var config []otlpmetricgrpc.Option
		if opts.MetricExporterInsecureEndpoint {
			config = append(config, otlpmetricgrpc.WithInsecure())
		}

		return otlpmetricgrpc.New(ctx, config...)
	case consoleMetricExporterType:
		return stdoutmetric.New(stdoutmetric.WithWriter(writer))
	default:
		return nil, nil
	}
}

// Time collects a duration metric and a success or error counter for the function execution.
func (meter *Meter) Time(ctx context.Context, name string, attrs map[string]any, fn func(childCtx context.Context) error) error {
	if meter == nil || meter.provider == nil { // invoke function without metrics
		return fn(ctx)
	}

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	attrOpt := otelmetric.WithAttributes(mapToAttributes(attrs)...)

	if histogram, histErr := meter.Int64Histogram(CleanMetricName(name+"_duration"), otelmetric.WithUnit("ms")); histErr == nil {
		histogram.Record(ctx, elapsed.Milliseconds(), attrOpt)
	}

	suffix := "_success_count"
	if err != nil {
		suffix = "_error_count"
	}

	meter.Count(ctx, name+suffix, attrs)

	return err
}

// Count increments the named counter metric.
func (meter *Meter) Count(ctx context.Context, name string, attrs map[string]any) {
	if meter == nil || meter.provider == nil {
		return
	}

	counter, err := meter.Int64Counter(CleanMetricName(name))
	if err != nil {
		return
	}

	counter.Add(ctx, 1, otelmetric.WithAttributes(mapToAttributes(attrs)...))
}
