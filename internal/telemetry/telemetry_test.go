package telemetry

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
)

func TestNewTraceExporter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	http, err := otlptracehttp.New(ctx)
	require.NoError(t, err)

	grpc, err := otlptracegrpc.New(ctx)
	require.NoError(t, err)

	stdoutrace, err := stdouttrace.New()
	require.NoError(t, err)

	tests := []struct {
		name         string
		opts         *Options
		expectedType interface{}
		expectError  bool
		expectNil    bool
	}{
		{
			name:         "HTTP Trace Exporter",
			opts:         &Options{TraceExporter: "otlpHttp"},
			expectedType: http,
		},
		{
			name: "Custom HTTP endpoint",
			opts: &Options{
				TraceExporter:             "http",
				TraceExporterHTTPEndpoint: "http://localhost:4317",
			},
			expectedType: http,
		},
		{
			name:        "Custom HTTP endpoint without endpoint",
			opts:        &Options{TraceExporter: "http"},
			expectError: true,
		},
		{
			name:         "Grpc Trace Exporter",
			opts:         &Options{TraceExporter: "otlpGrpc"},
			expectedType: grpc,
		},
		{
			name:         "Console Trace Exporter",
			opts:         &Options{TraceExporter: "console"},
			expectedType: stdoutrace,
		},
		{
			name:      "None Trace Exporter",
			opts:      &Options{TraceExporter: "none"},
			expectNil: true,
		},
		{
			name:      "Default Trace Exporter",
			opts:      &Options{},
			expectNil: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter, err := NewTraceExporter(ctx, io.Discard, tt.opts)

			if tt.expectError {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)

			if tt.expectNil {
				assert.Nil(t, exporter)
			} else {
				assert.IsType(t, tt.expectedType, exporter)
			}
		})
	}
}

func TestNewMetricExporter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name         string
		exporterType string
		insecure     bool
		expectNil    bool
	}{
		{
			name:         "OTLP HTTP Exporter",
			exporterType: "otlpHttp",
		},
		{
			name:         "OTLP Grpc Exporter",
			exporterType: "otlpGrpc",
			insecure:     true,
		},
		{
			name:         "Console Exporter",
			exporterType: "console",
		},
		{
			name:         "None Exporter",
			exporterType: "none",
			expectNil:    true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := &Options{
				MetricExporter:                 tt.exporterType,
				MetricExporterInsecureEndpoint: tt.insecure,
			}

			exporter, err := NewMetricExporter(ctx, io.Discard, opts)
			assert.NoError(t, err)

			if tt.expectNil {
				assert.Nil(t, exporter)
			} else {
				assert.NotNil(t, exporter)
			}
		})
	}
}

func TestCleanMetricName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Normal case",
			input:    "metricName_1.2-3/4",
			expected: "metricName_1.2-3/4",
		},
		{
			name:     "Starts with invalid characters",
			input:    "!@#metricName",
			expected: "metricName",
		},
		{
			name:     "Ends with invalid characters",
			input:    "metricName!@#",
			expected: "metricName",
		},
		{
			name:     "Only invalid characters",
			input:    "!@#$%^&*()",
			expected: "",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "Multiple replacements",
			input:    "metric!@#Name",
			expected: "metric_Name",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, CleanMetricName(tc.input))
		})
	}
}

func TestCollectWithoutExportersRunsFunction(t *testing.T) {
	t.Parallel()

	tlm := new(Telemeter)

	ran := false
	err := tlm.Collect(context.Background(), "noop_operation", map[string]any{"key": "value"}, func(childCtx context.Context) error {
		ran = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
}

func TestCollectConsoleExportersWriteSpans(t *testing.T) {
	ctx := context.Background()

	var out bytes.Buffer

	tlm, err := NewTelemeter(ctx, "worklift", "test", &out, &Options{
		TraceExporter:  "console",
		MetricExporter: "console",
	})
	require.NoError(t, err)

	err = tlm.Collect(ctx, "collect_smoke", map[string]any{"issues": 3}, func(childCtx context.Context) error {
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, tlm.Shutdown(ctx))

	assert.Contains(t, out.String(), "collect_smoke")
}

func TestTelemeterFromContextDefault(t *testing.T) {
	t.Parallel()

	tlm := TelemeterFromContext(context.Background())
	require.NotNil(t, tlm)

	withTlm := ContextWithTelemeter(context.Background(), tlm)
	assert.Equal(t, tlm, TelemeterFromContext(withTlm))
}
