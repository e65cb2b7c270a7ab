package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOtelHeaders(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "authorization=Bearer x, bad, =v,k2=v2")
	assert.Equal(t, map[string]string{"authorization": "Bearer x", "k2": "v2"}, otelHeaders())

	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")
	assert.Nil(t, otelHeaders())
}

func TestOtelSampleRatioClamped(t *testing.T) {
	for raw, want := range map[string]float64{"": 0.1, "0.5": 0.5, "7": 1, "-1": 0, "junk": 0.1} {
		t.Setenv("OTEL_SAMPLER_RATIO", raw)
		assert.Equal(t, want, otelSampleRatio(), raw)
	}
}
