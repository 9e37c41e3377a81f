package telemetry

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		config        Config
		errorContains string
	}{
		{name: "default sampler", config: Config{}},
		{name: "never", config: Config{SamplerType: "never"}},
		{name: "ratio", config: Config{SamplerType: "ratio", SamplerRatio: 0.25}},
		{name: "ratio above one", config: Config{SamplerType: "ratio", SamplerRatio: 2}, errorContains: "between 0 and 1"},
		{name: "unknown sampler", config: Config{SamplerType: "sometimes"}, errorContains: `unknown sampler "sometimes"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.errorContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestInitTracer_InvalidConfig(t *testing.T) {
	_, err := InitTracer(context.Background(), Config{Enabled: true, SamplerType: "sometimes"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid tracing configuration")
}

func TestSkillAttributes(t *testing.T) {
	assert.Equal(t, []attribute.KeyValue{attribute.String("skill.name", "pdf")}, SkillAttributes("", "pdf"))
	assert.Equal(t, []attribute.KeyValue{
		attribute.String("skill.name", "api"),
		attribute.String("skill.collection", "docs"),
	}, SkillAttributes("docs", "api"))
}

func TestGetSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", getSampler(Config{}).Description())
	assert.Equal(t, "AlwaysOffSampler", getSampler(Config{SamplerType: "never"}).Description())
	assert.Contains(t, getSampler(Config{SamplerType: "ratio", SamplerRatio: 0.5}).Description(), "TraceIDRatioBased{0.5}")
}

func TestWithSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	err := WithSpan(context.Background(), "skills.import", func(context.Context) error {
		return nil
	}, SkillAttributes("", "pdf")...)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = WithSpan(context.Background(), "skills.import", func(context.Context) error {
		return boom
	})
	assert.Equal(t, boom, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, "skills.import", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Contains(t, spans[0].Attributes, attribute.String("skill.name", "pdf"))

	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "boom", spans[1].Status.Description)
}
